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
	"math"
	"sync"
	"time"

	"github.com/ctessum/fwxgrid/diurnal"
)

// GridHandle is returned by Stream.AttachToGrid and is the only way to
// detach a grid's reference to a stream. It replaces the source system's
// "magic key" refcount token (spec.md §9 Design Notes) with an explicit,
// unforgeable operation.
type GridHandle struct {
	stream *Stream
	live   bool
}

// Detach decrements the stream's grid reference count. It is a no-op if
// already detached.
func (h *GridHandle) Detach() {
	if h == nil || !h.live {
		return
	}
	h.stream.mu.Lock()
	h.stream.gridCount--
	h.stream.mu.Unlock()
	h.live = false
}

type streamCacheKey struct {
	t     int64
	flags InterpolationFlags
}

type streamCacheEntry struct {
	wx   IWXData
	ifwi IFWIData
}

// Stream is a per-station temporal series of daily/hourly observations
// plus the starting codes and method flags needed to derive FWI state at
// any point in its range (spec.md §4.D).
type Stream struct {
	mu sync.RWMutex

	Location *time.Location // LST fixed-offset zone for this stream
	Days     []*Day

	Starting      StartingCodes
	Method        FFMCMethod
	UserSpecified bool

	TempCurve, WindCurve       diurnal.Curve
	Sunrise, SolarNoon, Sunset time.Duration // fixed LST offsets from midnight

	Station *Station

	gridCount int

	cacheMu sync.RWMutex
	cache   map[streamCacheKey]streamCacheEntry
}

// NewStream creates an empty stream anchored in the given LST zone.
func NewStream(loc *time.Location) *Stream {
	return &Stream{
		Location:  loc,
		TempCurve: diurnal.DefaultTempCurve,
		WindCurve: diurnal.DefaultWindCurve,
		Sunrise:   6 * time.Hour,
		SolarNoon: 12 * time.Hour,
		Sunset:    19 * time.Hour,
		cache:     make(map[streamCacheKey]streamCacheEntry),
	}
}

// AttachToGrid registers a grid's reference to this stream and returns a
// handle the grid must later call Detach on.
func (s *Stream) AttachToGrid() *GridHandle {
	s.mu.Lock()
	s.gridCount++
	s.mu.Unlock()
	return &GridHandle{stream: s, live: true}
}

// GridCount returns the number of grids currently referencing this stream.
func (s *Stream) GridCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gridCount
}

// invalidate clears the stream's query cache. Called whenever a day
// mutates, or the owning station's location changes.
func (s *Stream) invalidate() {
	s.cacheMu.Lock()
	s.cache = make(map[streamCacheKey]streamCacheEntry)
	s.cacheMu.Unlock()
}

func (s *Stream) dayIndex(t time.Time) (int, bool) {
	if len(s.Days) == 0 {
		return 0, false
	}
	lt := t.In(s.Location)
	first := s.Days[0].Start
	if lt.Before(first) {
		return 0, false
	}
	idx := int(lt.Sub(first) / (24 * time.Hour))
	if idx >= len(s.Days) {
		return 0, false
	}
	return idx, true
}

// StartTime returns the start of the stream's first day.
func (s *Stream) StartTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Days) == 0 {
		return time.Time{}
	}
	return s.Days[0].Start
}

// EndTime returns the end of the stream's valid range (the end of its
// last day's last hour).
func (s *Stream) EndTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Days) == 0 {
		return time.Time{}
	}
	last := s.Days[len(s.Days)-1]
	return last.Start.Add(time.Duration(last.lastHour()+1) * time.Hour)
}

// Recalculate walks the stream's days in order, reconstructing hourly
// values for daily-specified days and computing FWI codes for every day.
// It must be called after any mutation (import, SetAttribute affecting
// starting codes, SetValidTimeRange) before queries are served.
func (s *Stream) Recalculate(latRad float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevCodes := DailyFWICodes{
		FFMC: FWICode{Specified: Unset, Calculated: s.Starting.FFMC},
		DMC:  FWICode{Specified: Unset, Calculated: s.Starting.DMC},
		DC:   FWICode{Specified: Unset, Calculated: s.Starting.DC},
		BUI:  FWICode{Specified: Unset, Calculated: s.Starting.BUI},
	}
	for i, d := range s.Days {
		d.IsFirst = i == 0
		d.IsLast = i == len(s.Days)-1
		var prev, next *Day
		if i > 0 {
			prev = s.Days[i-1]
		}
		if i < len(s.Days)-1 {
			next = s.Days[i+1]
		}
		d.MakeHourly(prev, next, s.TempCurve, s.WindCurve, s.Sunrise, s.SolarNoon, s.Sunset)
		month := int(d.Start.Month())
		d.CalculateFWI(prevCodes, s.Method, s.UserSpecified, latRad, month)
		prevCodes = d.Codes
	}
	s.cache = make(map[streamCacheKey]streamCacheEntry)
}

// GetInstantaneous returns the weather and FWI state at time t
// (spec.md §4.D). When t is not on an hour boundary and temporal
// interpolation is enabled, the two bracketing hours are linearly
// interpolated; otherwise the floor hour's values are returned.
func (s *Stream) GetInstantaneous(t time.Time, flags InterpolationFlags) (IWXData, IFWIData, DFWIData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.dayIndex(t)
	if !ok {
		return IWXData{}, IFWIData{}, DFWIData{}, newErr(LocationOutOfRange, "time outside stream range")
	}
	day := s.Days[idx]
	lt := t.In(s.Location)
	elapsed := lt.Sub(day.Start)
	hourFloat := elapsed.Seconds() / 3600.0
	h0 := int(math.Floor(hourFloat))

	onBoundary := hourFloat == math.Trunc(hourFloat)
	if onBoundary || !flags.Has(InterpolateTemporal) {
		h := h0
		if h < day.firstHour() {
			h = day.firstHour()
		}
		if h > day.lastHour() {
			h = day.lastHour()
		}
		return IWXData{day.Hourly[h]}, day.HourlyCodes[h], day.Codes, nil
	}

	h1 := h0 + 1
	day1 := day
	if h1 > day.lastHour() {
		if idx+1 < len(s.Days) {
			day1 = s.Days[idx+1]
			h1 = day1.firstHour()
		} else {
			// last hour of stream: return it with precipitation zeroed
			// (spec.md §9 Open Questions).
			obs := day.Hourly[day.lastHour()]
			obs.Precip = 0
			return IWXData{obs}, day.HourlyCodes[day.lastHour()], day.Codes, nil
		}
	}
	frac := hourFloat - math.Trunc(hourFloat)
	o0, o1 := day.Hourly[h0], day1.Hourly[h1]
	out := interpolateHourly(o0, o1, frac)
	return IWXData{out}, day.HourlyCodes[h0], day.Codes, nil
}

// interpolateHourly linearly interpolates between two hourly observations
// a fraction f of the way from o0 to o1, applying the wind-vector and
// precipitation rules of spec.md §4.D.
func interpolateHourly(o0, o1 HourlyObservation, frac float64) HourlyObservation {
	out := HourlyObservation{
		Temperature: lerp(o0.Temperature, o1.Temperature, frac),
		DewPoint:    lerp(o0.DewPoint, o1.DewPoint, frac),
		RH:          lerp(o0.RH, o1.RH, frac),
		Precip:      o1.Precip, // attributed wholly to the later hour
	}
	out.WindSpeed, out.WindDirection = interpolateWind(o0.WindSpeed, o0.WindDirection, o1.WindSpeed, o1.WindDirection, frac)
	if o0.HasGust || o1.HasGust {
		out.HasGust = true
		out.WindGust = lerp(o0.WindGust, o1.WindGust, frac)
	}
	return out
}

func lerp(a, b, f float64) float64 { return a + (b-a)*f }

const calmThreshold = 0.0001

// interpolateWind blends two wind vectors, honouring: dead-calm hours
// defer entirely to the other hour's direction; near-antipodal pairs snap
// to the closer hour instead of averaging through a meaningless midpoint
// (spec.md §4.D, §8 invariant 14).
func interpolateWind(ws0, wd0, ws1, wd1, frac float64) (ws, wd float64) {
	calm0 := ws0 <= calmThreshold || math.Abs(wd0) <= calmThreshold
	calm1 := ws1 <= calmThreshold || math.Abs(wd1) <= calmThreshold

	ws = lerp(ws0, ws1, frac)
	switch {
	case calm0 && calm1:
		return ws, 0
	case calm0:
		return ws, wd1
	case calm1:
		return ws, wd0
	}

	diff := math.Mod(wd1-wd0+math.Pi, 2*math.Pi)
	if diff < 0 {
		diff += 2 * math.Pi
	}
	diff -= math.Pi
	if math.Abs(math.Abs(diff)-math.Pi) < (1 * math.Pi / 180) {
		if frac < 0.5 {
			return ws, wd0
		}
		return ws, wd1
	}
	wd = wd0 + diff*frac
	if wd < 0 {
		wd += 2 * math.Pi
	}
	if wd >= 2*math.Pi {
		wd -= 2 * math.Pi
	}
	return ws, wd
}

// GetEventTime returns the next strictly-monotone hour/day boundary from
// "from" in the requested direction, walking across day records as
// needed (spec.md §4.D).
func (s *Stream) GetEventTime(from time.Time, dir EventDirection) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.dayIndex(from)
	if !ok {
		return time.Time{}, false
	}
	for {
		day := s.Days[idx]
		t, ok := day.GetEventTime(from, dir)
		if ok {
			return t, true
		}
		if dir == Forward {
			if idx+1 >= len(s.Days) {
				return t, true // stream end
			}
			idx++
		} else {
			if idx == 0 {
				return t, true // stream start
			}
			idx--
		}
	}
}

// SetValidTimeRange trims days off both ends of the stream so that only
// [start, start+duration] remains. When correctInitialPrecip is true, the
// precipitation trimmed from before "start" is accumulated into
// Starting.InitialRain so cumulative-rain queries remain exact
// (spec.md §4.D, §8 invariant 9: idempotent under repeated calls).
func (s *Stream) SetValidTimeRange(start time.Time, duration time.Duration, correctInitialPrecip bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	end := start.Add(duration)
	var kept []*Day
	var trimmedPrecip float64
	for _, d := range s.Days {
		dayEnd := d.Start.Add(time.Duration(d.lastHour()+1) * time.Hour)
		switch {
		case dayEnd.After(start) && d.Start.Before(end):
			kept = append(kept, d)
		case d.Start.Before(start):
			trimmedPrecip += d.Summary.Precip
		}
	}
	if correctInitialPrecip {
		s.Starting.InitialRain += trimmedPrecip
	}
	s.Days = kept
	s.cache = make(map[streamCacheKey]streamCacheEntry)
}
