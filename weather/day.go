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
	"time"

	"github.com/ctessum/fwxgrid/diurnal"
	"github.com/ctessum/fwxgrid/fwi"
)

// HourlyPresence is the result of Day.IsHourlySpecified.
type HourlyPresence int

const (
	HourlyNo HourlyPresence = iota
	HourlyYes
	HourlyOutOfRange
)

type dayMode int

const (
	dayModeUnset dayMode = iota
	dayModeDaily
	dayModeHourly
)

// EventDirection selects which way Day.GetEventTime searches.
type EventDirection int

const (
	Forward EventDirection = iota
	Backward
)

// Day holds one LST-aligned day's observations and the FWI codes derived
// from them (spec.md §4.C). Intermediate days in a stream cover all 24
// hours; the first day of a stream starts at FirstHour, the last day ends
// at LastHour.
type Day struct {
	Start time.Time // LST midnight for this day

	FirstHour int // only meaningful when this is the stream's first day
	LastHour  int // only meaningful when this is the stream's last day
	IsFirst   bool
	IsLast    bool

	mode    dayMode
	Hourly  [24]HourlyObservation
	Summary DailySummary

	Codes       DailyFWICodes
	HourlyCodes [24]IFWIData
}

// NewDay creates an empty intermediate day starting at start.
func NewDay(start time.Time) *Day {
	return &Day{Start: start, LastHour: 23}
}

// HourlySpecified reports whether this day's observations were supplied
// hour-by-hour (DAY_HOURLY_SPECIFIED).
func (d *Day) HourlySpecified() bool { return d.mode == dayModeHourly }

func (d *Day) firstHour() int {
	if d.IsFirst {
		return d.FirstHour
	}
	return 0
}

func (d *Day) lastHour() int {
	if d.IsLast {
		return d.LastHour
	}
	return 23
}

// SetDaily records a daily summary observation. It fails if the day has
// already accepted hourly observations.
func (d *Day) SetDaily(s DailySummary) error {
	if d.mode == dayModeHourly {
		return newErr(InvalidData, "cannot set_daily on an hourly-specified day")
	}
	if s.MinTemp > s.MaxTemp {
		s.MinTemp, s.MaxTemp = s.MaxTemp, s.MinTemp
	}
	if s.MinWS > s.MaxWS {
		s.MinWS, s.MaxWS = s.MaxWS, s.MinWS
	}
	if s.HasGust && s.MinGust > s.MaxGust {
		s.MinGust, s.MaxGust = s.MaxGust, s.MinGust
	}
	d.Summary = s
	d.mode = dayModeDaily
	return nil
}

// SetHourly records a single hour's observation. It fails if the day has
// already accepted a daily summary.
func (d *Day) SetHourly(hour int, obs HourlyObservation) error {
	if d.mode == dayModeDaily {
		return newErr(InvalidData, "cannot set_hourly on a daily-specified day")
	}
	if hour < 0 || hour > 23 {
		return newErr(InvalidData, "hour %d out of range", hour)
	}
	d.Hourly[hour] = obs
	d.mode = dayModeHourly
	return nil
}

// IsHourlySpecified reports whether t (which must fall within this day)
// has an hourly-specified observation, is out of the day's valid hour
// range (only possible on the stream's first/last day), or is a
// daily-specified day (HourlyNo).
func (d *Day) IsHourlySpecified(t time.Time) HourlyPresence {
	hour := int(t.Sub(d.Start).Hours())
	if hour < d.firstHour() || hour > d.lastHour() {
		return HourlyOutOfRange
	}
	if d.mode == dayModeHourly {
		return HourlyYes
	}
	return HourlyNo
}

// MakeHourly reconstructs this day's 24 hourly observations from its daily
// summary using the diurnal model, when the day is daily-specified. prev
// and next are the adjacent days (prev's MaxTemp/MaxWS give "yesterday's
// sunset value" when prev is daily-specified; otherwise this day's own
// MinTemp/MinWS stand in for it).
func (d *Day) MakeHourly(prev, next *Day, tempCurve, windCurve diurnal.Curve, sunrise, solarNoon, sunset time.Duration) {
	if d.mode != dayModeDaily {
		return
	}
	tm := diurnal.Times{
		SunsetYesterday: d.Start.Add(sunset - 24*time.Hour),
		MinToday:        d.Start.Add(sunrise),
		MaxToday:        d.Start.Add(solarNoon),
		SunsetToday:     d.Start.Add(sunset),
	}
	prevSunsetTemp := diurnal.SyntheticYesterday(d.Summary.MinTemp)
	prevSunsetWS := diurnal.SyntheticYesterday(d.Summary.MinWS)
	if prev != nil && prev.mode == dayModeDaily {
		prevSunsetTemp = prev.Summary.MaxTemp
		prevSunsetWS = prev.Summary.MaxWS
	}

	for h := 0; h < 24; h++ {
		t := d.Start.Add(time.Duration(h) * time.Hour)
		temp := diurnal.Value(t, tm, tempCurve, d.Summary.MinTemp, d.Summary.MaxTemp, prevSunsetTemp)
		ws := diurnal.Value(t, tm, windCurve, d.Summary.MinWS, d.Summary.MaxWS, prevSunsetWS)
		rh := diurnal.RelativeHumidity(temp, d.Summary.MaxTemp, d.Summary.MeanRH)
		var precip float64
		if h == diurnal.PrecipHour {
			precip = d.Summary.Precip
		}
		obs := HourlyObservation{
			Temperature:   temp,
			DewPoint:      diurnal.DewPoint(temp, rh),
			RH:            rh,
			Precip:        precip,
			WindSpeed:     ws,
			WindDirection: d.Summary.MeanWindDirection,
			Specified:     0,
		}
		if d.Summary.HasGust {
			obs.HasGust = true
			obs.WindGust = diurnal.Value(t, tm, windCurve, d.Summary.MinGust, d.Summary.MaxGust, prevSunsetWS)
		}
		d.Hourly[h] = obs
	}
}

// MakeDaily derives the daily summary from a day's hourly observations,
// when the day is hourly-specified. It is the inverse of MakeHourly and is
// idempotent (spec.md §8 invariant 10).
func (d *Day) MakeDaily() {
	if d.mode != dayModeHourly {
		return
	}
	fh, lh := d.firstHour(), d.lastHour()
	s := DailySummary{MinTemp: d.Hourly[fh].Temperature, MaxTemp: d.Hourly[fh].Temperature}
	s.MinWS, s.MaxWS = d.Hourly[fh].WindSpeed, d.Hourly[fh].WindSpeed
	var rhSum, wdSumX, wdSumY, precipSum float64
	n := 0
	for h := fh; h <= lh; h++ {
		o := d.Hourly[h]
		if o.Temperature < s.MinTemp {
			s.MinTemp = o.Temperature
		}
		if o.Temperature > s.MaxTemp {
			s.MaxTemp = o.Temperature
		}
		if o.WindSpeed < s.MinWS {
			s.MinWS = o.WindSpeed
		}
		if o.WindSpeed > s.MaxWS {
			s.MaxWS = o.WindSpeed
		}
		if o.HasGust {
			s.HasGust = true
			if n == 0 || o.WindGust < s.MinGust {
				s.MinGust = o.WindGust
			}
			if o.WindGust > s.MaxGust {
				s.MaxGust = o.WindGust
			}
		}
		rhSum += o.RH
		precipSum += o.Precip
		wdSumX += o.WindSpeed * math.Cos(o.WindDirection)
		wdSumY += o.WindSpeed * math.Sin(o.WindDirection)
		n++
	}
	if n > 0 {
		s.MeanRH = rhSum / float64(n)
	}
	s.Precip = precipSum
	s.MeanWindDirection = math.Atan2(wdSumY, wdSumX)
	d.Summary = s
}

// CalculateFWI computes this day's FWI codes in the order mandated by
// spec.md §4.C: DC, DMC, BUI, daily FFMC, hourly FFMC, then the remaining
// daily and hourly ISI/FWI. prevCodes are yesterday's daily codes (or the
// stream's starting codes on day 0). honourSpecified controls whether
// per-code user overrides are read back instead of the calculated value.
func (d *Day) CalculateFWI(prevCodes DailyFWICodes, method FFMCMethod, honourSpecified bool, latRad float64, month int) {
	rain24 := d.Summary.Precip

	d.Codes.DC.Calculated = fwi.DC(prevCodes.DC.Value(honourSpecified), d.Summary.MaxTemp, rain24, latRad, month)
	d.Codes.DMC.Calculated = fwi.DMC(prevCodes.DMC.Value(honourSpecified), d.Summary.MaxTemp, d.Summary.MeanRH*100, rain24, latRad, month)
	d.Codes.BUI.Calculated = fwi.BUI(d.Codes.DC.Value(honourSpecified), d.Codes.DMC.Value(honourSpecified))
	d.Codes.FFMC.Calculated = fwi.DailyFFMC(prevCodes.FFMC.Value(honourSpecified), rain24, d.Summary.MaxTemp, d.Summary.MeanRH*100, d.Summary.MaxWS)

	d.calculateHourlyFFMC(prevCodes, method, honourSpecified)

	d.Codes.ISI.Calculated = fwi.ISI(d.Codes.FFMC.Value(honourSpecified), d.Summary.MaxWS, 3600)
	d.Codes.FWI.Calculated = fwi.FWI(d.Codes.ISI.Value(honourSpecified), d.Codes.BUI.Value(honourSpecified))

	for h := d.firstHour(); h <= d.lastHour(); h++ {
		ffmc := d.HourlyCodes[h].FFMC.Value(honourSpecified)
		d.HourlyCodes[h].ISI.Calculated = fwi.ISI(ffmc, d.Hourly[h].WindSpeed, 3600)
		d.HourlyCodes[h].FWI.Calculated = fwi.FWI(d.HourlyCodes[h].ISI.Value(honourSpecified), d.Codes.BUI.Value(honourSpecified))
	}
}

func (d *Day) calculateHourlyFFMC(prevCodes DailyFWICodes, method FFMCMethod, honourSpecified bool) {
	switch method {
	case FFMCLawson:
		for h := d.firstHour(); h <= d.lastHour(); h++ {
			rhBefore, rhAt, rhAfter := d.bracketRH(h)
			secLST := float64(h) * 3600
			d.HourlyCodes[h].FFMC.Calculated = fwi.HourlyFFMCLawson(
				prevCodes.FFMC.Value(honourSpecified), d.Codes.FFMC.Value(honourSpecified),
				d.Hourly[h].Precip, d.Hourly[h].Temperature, rhBefore, rhAt, rhAfter,
				d.Hourly[h].WindSpeed, secLST)
		}
	default: // FFMCVanWagner
		prev := prevCodes.FFMC.Value(honourSpecified)
		for h := d.firstHour(); h <= d.lastHour(); h++ {
			d.HourlyCodes[h].FFMC.Calculated = fwi.HourlyFFMCVanWagner(
				prev, d.Hourly[h].Precip, d.Hourly[h].Temperature, d.Hourly[h].RH*100,
				d.Hourly[h].WindSpeed, 3600)
			prev = d.HourlyCodes[h].FFMC.Calculated
		}
	}
}

func (d *Day) bracketRH(h int) (before, at, after float64) {
	at = d.Hourly[h].RH * 100
	before, after = at, at
	if h > d.firstHour() {
		before = d.Hourly[h-1].RH * 100
	}
	if h < d.lastHour() {
		after = d.Hourly[h+1].RH * 100
	}
	return before, at, after
}

// GetEventTime returns the next hour boundary within this day in the
// requested direction from "from". ok is false when the search would
// cross this day's start (Backward) or end (Forward) boundary, signalling
// the caller to consult the adjacent day.
func (d *Day) GetEventTime(from time.Time, dir EventDirection) (next time.Time, ok bool) {
	fh, lh := d.firstHour(), d.lastHour()
	dayStart := d.Start.Add(time.Duration(fh) * time.Hour)
	dayEnd := d.Start.Add(time.Duration(lh+1) * time.Hour)

	if dir == Forward {
		elapsed := from.Sub(d.Start)
		h := int(elapsed/time.Hour) + 1
		cand := d.Start.Add(time.Duration(h) * time.Hour)
		if !cand.After(dayEnd) && !from.Before(dayStart) {
			return cand, true
		}
		return dayEnd, false
	}
	elapsed := from.Sub(d.Start)
	h := int(elapsed / time.Hour)
	if from.Sub(d.Start.Add(time.Duration(h)*time.Hour)) == 0 {
		h--
	}
	cand := d.Start.Add(time.Duration(h) * time.Hour)
	if !cand.Before(dayStart) {
		return cand, true
	}
	return dayStart, false
}
