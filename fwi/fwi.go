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

// Package fwi implements the Canadian Forest Fire Weather Index System
// equations (Van Wagner 1987) as a set of stateless functions: the Fine
// Fuel Moisture Code (FFMC), Duff Moisture Code (DMC), Drought Code (DC),
// Build-Up Index (BUI), Initial Spread Index (ISI) and Fire Weather Index
// (FWI) itself.
package fwi

import "math"

// dmcDayLength is the Duff Moisture Code day-length adjustment factor by
// month, for the northern hemisphere. Southern-hemisphere latitudes use
// the same table shifted by six months.
var dmcDayLength = [12]float64{6.5, 7.5, 9.0, 12.8, 13.9, 13.9, 12.4, 10.9, 9.4, 8.0, 7.0, 6.0}

// dcDayLength is the Drought Code day-length adjustment factor by month,
// for the northern hemisphere.
var dcDayLength = [12]float64{-1.6, -1.6, -1.6, 0.9, 3.8, 5.8, 6.4, 5.0, 2.4, 0.4, -1.6, -1.6}

func dayLengthFactor(table [12]float64, lat float64, month int) float64 {
	m := month - 1
	if lat < 0 {
		m = (m + 6) % 12
	}
	if m < 0 {
		m += 12
	}
	return table[m]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DailyFFMC computes the Van Wagner daily Fine Fuel Moisture Code from the
// previous day's code, rain (mm) accumulated over the preceding 24 hours,
// noon temperature (C), relative humidity (percent, 0-100) and wind speed
// (km/h).
func DailyFFMC(prevFFMC, rain24, temp, rh, ws float64) float64 {
	return stepFFMC(prevFFMC, rain24, 0.5, temp, rh, ws, 1.0)
}

// HourlyFFMCVanWagner computes the hourly Van Wagner FFMC given the
// previous hour's FFMC, precipitation (mm) since the previous hour,
// temperature (C), relative humidity (percent), wind speed (km/h) and the
// number of elapsed seconds since the previous hour's FFMC was valid
// (normally 3600, but may differ when propagating across a gap).
func HourlyFFMCVanWagner(prevFFMC, rain, temp, rh, ws, elapsedSeconds float64) float64 {
	elapsedHours := elapsedSeconds / 3600.0
	return stepFFMC(prevFFMC, rain, 0.02, temp, rh, ws, elapsedHours)
}

// stepFFMC is the shared Van Wagner (1987) FFMC moisture-content update
// used by both the daily and hourly variants; they differ only in the
// rain-intercept threshold and the drying/wetting exponent's time base.
func stepFFMC(prevFFMC, rain, rainThreshold, temp, rh, ws, timeFraction float64) float64 {
	mo := 147.2 * (101.0 - prevFFMC) / (59.5 + prevFFMC)
	if rain > rainThreshold {
		rf := rain - rainThreshold
		if rainThreshold >= 0.5 {
			// daily variant: Van Wagner's 0.5mm canopy interception.
			rf = rain - 0.5
		}
		mr := mo + 42.5*rf*math.Exp(-100/(251-mo))*(1-math.Exp(-6.93/rf))
		if mo > 150 {
			mr += 0.0015 * (mo - 150) * (mo - 150) * math.Sqrt(rf)
		}
		mo = math.Min(mr, 250)
	}

	ed := 0.942*math.Pow(rh, 0.679) + 11*math.Exp((rh-100)/10) + 0.18*(21.1-temp)*(1-math.Exp(-0.115*rh))
	ew := 0.618*math.Pow(rh, 0.753) + 10*math.Exp((rh-100)/10) + 0.18*(21.1-temp)*(1-math.Exp(-0.115*rh))

	var m float64
	switch {
	case mo > ed:
		ko := 0.424*(1-math.Pow(rh/100, 1.7)) + 0.0694*math.Sqrt(ws)*(1-math.Pow(rh/100, 8))
		kd := ko * 0.581 * math.Exp(0.0365*temp)
		m = ed + (mo-ed)*math.Pow(10, -kd*timeFraction)
	case mo < ew:
		k1 := 0.424*(1-math.Pow((100-rh)/100, 1.7)) + 0.0694*math.Sqrt(ws)*(1-math.Pow((100-rh)/100, 8))
		kw := k1 * 0.581 * math.Exp(0.0365*temp)
		m = ew - (ew-mo)*math.Pow(10, -kw*timeFraction)
	default:
		m = mo
	}

	f := 59.5 * (250 - m) / (147.2 + m)
	return clamp(f, 0, 101)
}

// HourlyFFMCLawson computes the Lawson-contiguous hourly FFMC, which
// derives hourly fine-fuel moisture from the previous day's and today's
// daily FFMC codes rather than from hour-by-hour observations. secondsLST
// is the elapsed time since local-standard-time midnight of the day the
// query hour falls within.
//
// When either bracketing hour's relative humidity is unavailable, callers
// pass the same RH value for rhBefore, rhAt and rhAfter; this is preserved
// deliberately (see spec §9 Open Questions) rather than special-cased.
func HourlyFFMCLawson(prevDayFFMC, todayFFMC, rain, temp, rhBefore, rhAt, rhAfter, ws, secondsLST float64) float64 {
	const peakSeconds = 16 * 3600.0 // moisture minimum near 16:00 LST
	const daySeconds = 24 * 3600.0

	var frac float64
	var base float64
	if secondsLST <= peakSeconds {
		frac = secondsLST / peakSeconds
		base = prevDayFFMC + (todayFFMC-prevDayFFMC)*frac
	} else {
		frac = (secondsLST - peakSeconds) / (daySeconds - peakSeconds)
		base = todayFFMC + (prevDayFFMC-todayFFMC)*frac
	}

	rh := (rhBefore + rhAt + rhAfter) / 3.0
	return stepFFMC(base, rain, 0.02, temp, rh, ws, 1.0/24.0)
}

// DMC computes the Duff Moisture Code from the previous day's code,
// noon temperature (C), relative humidity (percent), 24-hour rain (mm),
// latitude (radians) and month (1-12, for the day-length adjustment).
func DMC(prevDMC, temp, rh, rain24, latRad float64, month int) float64 {
	latDeg := latRad * 180 / math.Pi
	le := dayLengthFactor(dmcDayLength, latDeg, month)

	t := temp
	if t < -1.1 {
		t = -1.1
	}
	rk := 1.894 * (t + 1.1) * (100 - rh) * le * 1e-4

	p := prevDMC
	if rain24 > 1.5 {
		re := 0.92*rain24 - 1.27
		mo := 20 + math.Exp(5.6348-prevDMC/43.43)
		var b float64
		switch {
		case prevDMC <= 33:
			b = 100 / (0.5 + 0.3*prevDMC)
		case prevDMC <= 65:
			b = 14 - 1.3*math.Log(prevDMC)
		default:
			b = 6.2*math.Log(prevDMC) - 17.2
		}
		mr := mo + 1000*re/(48.77+b*re)
		pr := 244.72 - 43.43*math.Log(mr-20)
		p = math.Max(pr, 0)
	}
	return math.Max(p+rk, 0)
}

// DC computes the Drought Code from the previous day's code, noon
// temperature (C), 24-hour rain (mm), latitude (radians) and month (1-12).
func DC(prevDC, temp, rain24, latRad float64, month int) float64 {
	latDeg := latRad * 180 / math.Pi
	lf := dayLengthFactor(dcDayLength, latDeg, month)

	d := prevDC
	if rain24 > 2.8 {
		rd := 0.83*rain24 - 1.27
		qo := 800 * math.Exp(-prevDC/400)
		qr := qo + 3.937*rd
		dr := 400 * math.Log(800/qr)
		d = math.Max(dr, 0)
	}
	v := math.Max(0.36*(temp+2.8)+lf, 0)
	return d + 0.5*v
}

// BUI computes the Build-Up Index from the Drought Code and Duff Moisture
// Code.
func BUI(dc, dmc float64) float64 {
	if dmc <= 0 {
		return 0
	}
	var u float64
	if dmc <= 0.4*dc {
		u = 0.8 * dmc * dc / (dmc + 0.4*dc)
	} else {
		u = dmc - (1-0.8*dc/(dmc+0.4*dc))*math.Pow(0.92+math.Pow(0.0114*dmc, 1.7), 1)
	}
	return math.Max(u, 0)
}

// ISI computes the Initial Spread Index from FFMC and wind speed (km/h).
// durationSeconds is accepted for interface symmetry with the hourly and
// sub-hourly FWI code paths; the Van Wagner ISI formula is a rate and does
// not itself depend on the averaging duration.
func ISI(ffmc, ws, durationSeconds float64) float64 {
	_ = durationSeconds
	fw := math.Exp(0.05039 * ws)
	m := 147.2 * (101 - ffmc) / (59.5 + ffmc)
	ff := 91.9 * math.Exp(-0.1386*m) * (1 + math.Pow(m, 5.31)/4.93e7)
	return 0.208 * fw * ff
}

// FWI computes the Fire Weather Index from ISI and BUI.
func FWI(isi, bui float64) float64 {
	var fd float64
	if bui <= 80 {
		fd = 0.626*math.Pow(bui, 0.809) + 2.0
	} else {
		fd = 1000 / (25 + 108.64*math.Exp(-0.023*bui))
	}
	b := 0.1 * isi * fd
	if b > 1 {
		return math.Exp(2.72 * math.Pow(0.434*math.Log(b), 0.647))
	}
	return b
}
