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

// Package diurnal reconstructs hourly weather values from daily extremes
// using the Beck-Trevitt sine/exponential curves, for streams that only
// carry daily minimum/maximum observations.
package diurnal

import (
	"math"
	"time"
)

// Curve holds the shape coefficients (alpha, beta, gamma) for one
// variable's diurnal reconstruction. Alpha and beta shift the time of the
// variable's minimum and maximum away from sunrise/solar-noon; gamma
// controls the curvature of the overnight exponential decay (a negative
// gamma makes the value decay from yesterday's sunset value toward Vmin).
type Curve struct {
	Alpha, Beta, Gamma float64
}

// DefaultTempCurve and DefaultWindCurve are reasonable Beck-Trevitt shape
// defaults used when a stream does not specify its own.
var (
	DefaultTempCurve = Curve{Alpha: 0, Beta: 0, Gamma: -2.2}
	DefaultWindCurve = Curve{Alpha: 0, Beta: 0, Gamma: -1.0}
)

// Times bundles the solar event times needed to reconstruct a single day's
// diurnal curve: yesterday's sunset, today's time of minimum, today's time
// of maximum and today's sunset.
type Times struct {
	SunsetYesterday time.Time
	MinToday        time.Time
	MaxToday        time.Time
	SunsetToday     time.Time
}

// clampFraction clamps a fraction to [0, 1].
func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func frac(t, lo, hi time.Time) float64 {
	total := hi.Sub(lo).Seconds()
	if total <= 0 {
		return 0
	}
	return t.Sub(lo).Seconds() / total
}

// Value reconstructs the instantaneous value of a diurnal variable at time
// t, given yesterday's sunset value, today's min and max, and the curve's
// shape coefficients applied to the solar event times in tm.
//
//   - Overnight (tSunsetYesterday <= t < tMinToday):
//     V(t) = Vmin + (Vsunset-Vmin)*exp(gamma*(t-ts)/(tn-ts))
//   - Daytime (tMinToday <= t <= tSunset):
//     V(t) = Vmin + (Vmax-Vmin)*sin((t-tn)/(tx-tn) * pi/2), with the sine
//     argument capped at pi/2: after tMax the value stays at Vmax and does
//     not fall again before the end of the day.
func Value(t time.Time, tm Times, c Curve, vMin, vMax, vSunsetYesterday float64) float64 {
	tMin := tm.MinToday.Add(time.Duration(c.Alpha * float64(time.Hour)))
	tMax := tm.MaxToday.Add(time.Duration(c.Beta * float64(time.Hour)))

	switch {
	case t.Before(tMin):
		x := frac(t, tm.SunsetYesterday, tMin)
		return vMin + (vSunsetYesterday-vMin)*math.Exp(c.Gamma*x)
	default:
		x := frac(t, tMin, tMax)
		if x > 1 {
			x = 1
		}
		return vMin + (vMax-vMin)*math.Sin(x*math.Pi/2)
	}
}

// VaporPressureSat returns the saturation vapour pressure (hPa) at
// temperature T (C) via the Tetens approximation used by the CFFWI system:
// VPs(T) = 6.112*exp(17.27*T/(237.3+T)).
func VaporPressureSat(tempC float64) float64 {
	return 6.112 * math.Exp(17.27*tempC/(237.3+tempC))
}

// RelativeHumidity reconstructs the fractional (0-1) relative humidity at
// temperature tempAtT (C), given the day's maximum temperature and mean
// daily relative humidity (fraction 0-1).
func RelativeHumidity(tempAtT, tempMax, rhDaily float64) float64 {
	vp := VaporPressureSat(tempMax) * rhDaily
	q0 := 217 * vp / (273.17 + tempMax)
	v := 100 * q0 / (6.108 * 217) * (273.17 + tempAtT) / math.Exp(17.27*tempAtT/(tempAtT+237.3))
	return clampFraction(v / 100)
}

// DewPoint computes dew-point temperature (C) from temperature (C) and
// fractional relative humidity (0-1), when the stream did not specify one:
// VP = RH*VPs(T)/10 (VPs converted from hPa to kPa);
// Td = 237.7*log10(VP/0.6112) / (7.5 - log10(VP/0.6112)).
func DewPoint(tempC, rh float64) float64 {
	vp := rh * VaporPressureSat(tempC) / 10
	l := math.Log10(vp / 0.6112)
	return 237.7 * l / (7.5 - l)
}

// PrecipHour is the LST hour of day that the whole of a day's
// precipitation total is attributed to when reconstructing hourly values
// from a daily record.
const PrecipHour = 12

// SyntheticYesterday returns a stand-in value for "yesterday's sunset
// value" when no previous day exists in the stream, avoiding boundary
// artefacts at the start of a series by assuming persistence from today.
func SyntheticYesterday(todayMin float64) float64 {
	return todayMin
}
