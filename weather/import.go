/*
Copyright © 2013 the fwxgrid authors.
This file is part of fwxgrid.

fwxgrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fwxgrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fwxgrid.  If not, see <http://www.gnu.org/licenses/>.
*/

package weather

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// ImportOption selects how new rows interact with a stream's existing days
// (spec.md §4.D). Purge is exclusive with Append/Overwrite.
type ImportOption int

const (
	ImportPurge ImportOption = iota
	ImportAppend
	ImportOverwrite
)

var dailySynonyms = map[string][]string{
	"date":      {"date", "name", "stationid"},
	"min_temp":  {"min_temp", "mintemp"},
	"max_temp":  {"max_temp", "maxtemp"},
	"rh":        {"rh", "min_rh", "relative_humidity"},
	"wd":        {"wd", "dir", "wind_direction"},
	"min_ws":    {"min_ws", "minws"},
	"max_ws":    {"max_ws", "maxws"},
	"min_gust":  {"min_gust", "mingust"},
	"max_gust":  {"max_gust", "maxgust"},
	"precip":    {"precip", "rain", "precipitation", "raintot"},
}

var hourlySynonyms = map[string][]string{
	"date":      {"date"},
	"hour":      {"hour", "time(cst)"},
	"temp":      {"temp", "temperature"},
	"rh":        {"rh", "relative_humidity"},
	"precip":    {"precip", "rain", "precipitation", "raintot"},
	"ws":        {"ws", "wind_speed"},
	"wd":        {"wd", "dir", "wind_direction"},
	"gust":      {"gust", "wind_gust"},
	"dew_point": {"dew_point", "dewpoint"},
	"ffmc":      {"ffmc", "hffmc"},
	"dmc":       {"dmc"},
	"dc":        {"dc"},
	"bui":       {"bui"},
	"isi":       {"isi"},
	"fwi":       {"fwi"},
}

// header maps a lowercase column name to its index within one parsed row.
type header map[string]int

func buildHeader(row []string) header {
	h := make(header, len(row))
	for i, col := range row {
		h[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return h
}

// resolve finds the first synonym present in h and returns its column
// index, or -1 if none of the synonyms are present.
func (h header) resolve(synonyms []string) int {
	for _, syn := range synonyms {
		if i, ok := h[syn]; ok {
			return i
		}
	}
	return -1
}

// detectFormat reports whether the header describes a daily or hourly
// import (spec.md §4.D: discriminated by header inspection — presence of
// an "hour" column is the deciding signal).
func detectFormat(h header) bool {
	_, hasHour := h["hour"]
	_, hasTimeCST := h["time(cst)"]
	return hasHour || hasTimeCST // true => hourly
}

func parseDelimiter(firstLine string) rune {
	switch {
	case strings.Contains(firstLine, "\t"):
		return '\t'
	case strings.Contains(firstLine, ";"):
		return ';'
	default:
		return ','
	}
}

func field(row []string, idx int) (string, bool) {
	if idx < 0 || idx >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}

func parseFloat(row []string, idx int, def float64) float64 {
	s, ok := field(row, idx)
	if !ok || s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func hasField(row []string, idx int) bool {
	s, ok := field(row, idx)
	return ok && s != ""
}

// clampRange clamps v into [lo, hi], warning with ctx if it was out of
// range (spec.md §4.D Range-validity rules; §7 "Recovered locally").
func clampRange(v *Validator, line int, name string, x, lo, hi float64) float64 {
	if x < lo || x > hi {
		v.Warn(line, "%s=%.3f out of range [%.1f, %.1f], clamped", name, x, lo, hi)
		log.WithFields(map[string]interface{}{"field": name, "value": x, "line": line}).Warn("import value clamped to range")
		if x < lo {
			return lo
		}
		return hi
	}
	return x
}

// Import reads rows from r, auto-detecting daily vs hourly format from the
// header, and applies them to the stream per opt (spec.md §4.D).
func (s *Stream) Import(r io.Reader, opt ImportOption, loc *time.Location) (*Validator, error) {
	br := &bufferedReader{r: r}
	firstLine, err := br.peekLine()
	if err != nil {
		return nil, newErr(BadFileType, "empty import source")
	}
	cr := csv.NewReader(br)
	cr.Comma = parseDelimiter(firstLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, newErr(BadFileType, "csv parse error: %v", err)
	}
	if len(rows) < 2 {
		return nil, newErr(BadFileType, "no data rows")
	}
	h := buildHeader(rows[0])
	if detectFormat(h) {
		return s.importHourly(h, rows[1:], opt, loc)
	}
	return s.importDaily(h, rows[1:], opt, loc)
}

func (s *Stream) importDaily(h header, rows [][]string, opt ImportOption, loc *time.Location) (*Validator, error) {
	v := &Validator{}
	idxDate := h.resolve(dailySynonyms["date"])
	idxMinT := h.resolve(dailySynonyms["min_temp"])
	idxMaxT := h.resolve(dailySynonyms["max_temp"])
	idxRH := h.resolve(dailySynonyms["rh"])
	idxWD := h.resolve(dailySynonyms["wd"])
	idxMinWS := h.resolve(dailySynonyms["min_ws"])
	idxMaxWS := h.resolve(dailySynonyms["max_ws"])
	idxMinGust := h.resolve(dailySynonyms["min_gust"])
	idxMaxGust := h.resolve(dailySynonyms["max_gust"])
	idxPrecip := h.resolve(dailySynonyms["precip"])
	if idxDate < 0 || idxMinT < 0 || idxMaxT < 0 {
		return nil, newErr(BadFileType, "daily import missing required columns")
	}

	var newDays []*Day
	var prevDate time.Time
	for i, row := range rows {
		line := i + 2
		dateStr, _ := field(row, idxDate)
		if dateStr == "" {
			continue
		}
		day, err := parseDate(dateStr, loc)
		if err != nil {
			return nil, newErr(InvalidData, "line %d: bad date %q", line, dateStr).withLine(line)
		}
		if !prevDate.IsZero() && day.Sub(prevDate) != 24*time.Hour {
			return nil, newErr(InvalidData, "line %d: daily rows must be sequential by 1 day", line).withLine(line)
		}
		prevDate = day

		summary := DailySummary{
			MinTemp: clampRange(v, line, "min_temp", parseFloat(row, idxMinT, 0), -50, 60),
			MaxTemp: clampRange(v, line, "max_temp", parseFloat(row, idxMaxT, 0), -50, 60),
			MeanRH:  clampRange(v, line, "rh", parseFloat(row, idxRH, 0), 0, 100) / 100,
			MeanWindDirection: degToRad(clampRange(v, line, "wd", parseFloat(row, idxWD, 0), 0, 360)),
			MinWS:   clampRange(v, line, "min_ws", parseFloat(row, idxMinWS, 0), 0, 200),
			MaxWS:   clampRange(v, line, "max_ws", parseFloat(row, idxMaxWS, 0), 0, 200),
			Precip:  clampRange(v, line, "precip", parseFloat(row, idxPrecip, 0), 0, 300),
		}
		if hasField(row, idxMinGust) || hasField(row, idxMaxGust) {
			summary.HasGust = true
			summary.MinGust = clampRange(v, line, "min_gust", parseFloat(row, idxMinGust, 0), 0, 200)
			summary.MaxGust = clampRange(v, line, "max_gust", parseFloat(row, idxMaxGust, 0), 0, 200)
		}

		d := NewDay(day)
		if err := d.SetDaily(summary); err != nil {
			return nil, err
		}
		newDays = append(newDays, d)
	}
	return v, s.mergeDays(newDays, opt)
}

func (s *Stream) importHourly(h header, rows [][]string, opt ImportOption, loc *time.Location) (*Validator, error) {
	v := &Validator{}
	idxDate := h.resolve(hourlySynonyms["date"])
	idxHour := h.resolve(hourlySynonyms["hour"])
	idxTemp := h.resolve(hourlySynonyms["temp"])
	idxRH := h.resolve(hourlySynonyms["rh"])
	idxPrecip := h.resolve(hourlySynonyms["precip"])
	idxWS := h.resolve(hourlySynonyms["ws"])
	idxWD := h.resolve(hourlySynonyms["wd"])
	idxGust := h.resolve(hourlySynonyms["gust"])
	idxDew := h.resolve(hourlySynonyms["dew_point"])
	idxFFMC := h.resolve(hourlySynonyms["ffmc"])
	idxDMC := h.resolve(hourlySynonyms["dmc"])
	idxDC := h.resolve(hourlySynonyms["dc"])
	idxBUI := h.resolve(hourlySynonyms["bui"])
	idxISI := h.resolve(hourlySynonyms["isi"])
	idxFWI := h.resolve(hourlySynonyms["fwi"])
	if idxDate < 0 || idxHour < 0 || idxTemp < 0 {
		return nil, newErr(BadFileType, "hourly import missing required columns")
	}

	byDay := map[time.Time]*Day{}
	var order []time.Time
	var prevTime time.Time
	for i, row := range rows {
		line := i + 2
		dateStr, _ := field(row, idxDate)
		hourStr, _ := field(row, idxHour)
		if dateStr == "" {
			continue
		}
		dayStart, err := parseDate(dateStr, loc)
		if err != nil {
			return nil, newErr(InvalidData, "line %d: bad date %q", line, dateStr).withLine(line)
		}
		hourVal, err := strconv.Atoi(strings.TrimSpace(hourStr))
		if err != nil || hourVal < 0 || hourVal > 23 {
			return nil, newErr(InvalidData, "line %d: bad hour %q", line, hourStr).withLine(line)
		}
		t := dayStart.Add(time.Duration(hourVal) * time.Hour)
		if !prevTime.IsZero() && t.Sub(prevTime) != time.Hour {
			return nil, newErr(InvalidData, "line %d: hourly rows must be sequential by 1 hour", line).withLine(line)
		}
		prevTime = t

		obs := HourlyObservation{
			Temperature:   clampRange(v, line, "temp", parseFloat(row, idxTemp, 0), -50, 60),
			RH:            clampRange(v, line, "rh", parseFloat(row, idxRH, 0), 0, 100) / 100,
			Precip:        clampRange(v, line, "precip", parseFloat(row, idxPrecip, 0), 0, 300),
			WindSpeed:     clampRange(v, line, "ws", parseFloat(row, idxWS, 0), 0, 200),
			WindDirection: degToRad(clampRange(v, line, "wd", parseFloat(row, idxWD, 0), 0, 360)),
			Specified:     SpecifiedTemperature | SpecifiedRH | SpecifiedPrecip | SpecifiedWindSpeed | SpecifiedWindDirection,
		}
		if hasField(row, idxGust) {
			obs.HasGust = true
			obs.WindGust = clampRange(v, line, "gust", parseFloat(row, idxGust, 0), 0, 200)
			obs.Specified |= SpecifiedWindGust
		}
		if hasField(row, idxDew) {
			obs.DewPoint = parseFloat(row, idxDew, 0)
			obs.Specified |= SpecifiedDewPoint
		}

		d, ok := byDay[dayStart]
		if !ok {
			d = NewDay(dayStart)
			byDay[dayStart] = d
			order = append(order, dayStart)
		}
		if err := d.SetHourly(hourVal, obs); err != nil {
			return nil, err
		}

		if hasField(row, idxFFMC) {
			d.HourlyCodes[hourVal].FFMC.Specified = parseFloat(row, idxFFMC, Unset)
			s.UserSpecified = true
		}
		if hasField(row, idxISI) {
			d.HourlyCodes[hourVal].ISI.Specified = parseFloat(row, idxISI, Unset)
			s.UserSpecified = true
		}
		if hasField(row, idxFWI) {
			d.HourlyCodes[hourVal].FWI.Specified = parseFloat(row, idxFWI, Unset)
			s.UserSpecified = true
		}
		if hasField(row, idxDMC) {
			d.Codes.DMC.Specified = parseFloat(row, idxDMC, Unset)
			s.UserSpecified = true
		}
		if hasField(row, idxDC) {
			d.Codes.DC.Specified = parseFloat(row, idxDC, Unset)
			s.UserSpecified = true
		}
		if hasField(row, idxBUI) {
			d.Codes.BUI.Specified = parseFloat(row, idxBUI, Unset)
			s.UserSpecified = true
		}
	}

	var newDays []*Day
	for _, t := range order {
		d := byDay[t]
		d.MakeDaily()
		newDays = append(newDays, d)
	}
	return v, s.mergeDays(newDays, opt)
}

// mergeDays folds newly-parsed days into s.Days according to opt
// (spec.md §4.D import options).
func (s *Stream) mergeDays(newDays []*Day, opt ImportOption) error {
	if len(newDays) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if opt == ImportPurge {
		log.WithField("days", len(newDays)).Debug("import purging existing stream data")
		s.Days = newDays
		s.invalidate()
		return nil
	}
	if len(s.Days) == 0 {
		s.Days = newDays
		s.invalidate()
		return nil
	}

	existingStart := s.Days[0].Start
	existingEnd := s.Days[len(s.Days)-1].Start
	newStart := newDays[0].Start
	newEnd := newDays[len(newDays)-1].Start

	if newStart.Before(existingStart) {
		return newErr(AttemptPrepend, "import data precedes existing stream start")
	}
	overlaps := !newStart.After(existingEnd)
	if overlaps && opt != ImportOverwrite {
		return newErr(AttemptOverwrite, "import overlaps existing data without OVERWRITE")
	}
	if !overlaps && opt != ImportAppend && opt != ImportOverwrite {
		return newErr(InvalidData, "import is not contiguous with existing data")
	}
	if !overlaps && newStart.Sub(existingEnd) != 24*time.Hour {
		return newErr(InvalidData, "import does not contiguously extend the stream")
	}

	if overlaps {
		var kept []*Day
		for _, d := range s.Days {
			if d.Start.Before(newStart) {
				kept = append(kept, d)
			}
		}
		s.Days = append(kept, newDays...)
	} else {
		s.Days = append(s.Days, newDays...)
	}
	_ = newEnd
	s.invalidate()
	return nil
}

// Export writes the stream's hourly observations back out in the hourly
// CSV format Import accepts, so import(export(stream)) round-trips
// (spec.md §8 invariant 7).
func (s *Stream) Export(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "hour", "temp", "rh", "precip", "ws", "wd"}); err != nil {
		return err
	}
	for _, d := range s.Days {
		for h := d.firstHour(); h <= d.lastHour(); h++ {
			o := d.Hourly[h]
			row := []string{
				d.Start.Format("2006-01-02"),
				strconv.Itoa(h),
				strconv.FormatFloat(o.Temperature, 'f', 2, 64),
				strconv.FormatFloat(o.RH*100, 'f', 2, 64),
				strconv.FormatFloat(o.Precip, 'f', 2, 64),
				strconv.FormatFloat(o.WindSpeed, 'f', 1, 64),
				strconv.FormatFloat(radToDeg(o.WindDirection), 'f', 0, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
func radToDeg(rad float64) float64 { return rad * 180 / math.Pi }

func parseDate(s string, loc *time.Location) (time.Time, error) {
	layouts := []string{"2006-01-02", "01/02/2006", "2006/01/02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// withLine attaches a source line number to an *Error, for import
// diagnostics (spec.md §7 "Surface with line number").
func (e *Error) withLine(line int) *Error {
	e.Line = line
	return e
}

// bufferedReader lets Import sniff the first line for delimiter detection
// before handing the full stream to encoding/csv.
type bufferedReader struct {
	r    io.Reader
	buf  []byte
	read bool
}

func (b *bufferedReader) peekLine() (string, error) {
	if b.read {
		return string(b.buf), nil
	}
	chunk := make([]byte, 4096)
	n, err := b.r.Read(chunk)
	if n == 0 && err != nil {
		return "", err
	}
	b.buf = chunk[:n]
	b.read = true
	nl := strings.IndexAny(string(b.buf), "\r\n")
	if nl < 0 {
		return string(b.buf), nil
	}
	return string(b.buf[:nl]), nil
}

func (b *bufferedReader) Read(p []byte) (int, error) {
	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		return n, nil
	}
	return b.r.Read(p)
}

