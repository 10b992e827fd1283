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
	"github.com/ctessum/geom"
)

// historyShadow is the trailing window during which a filter whose active
// window has already passed still marks OVERRODE_HISTORY bits, so FWI
// re-equilibration accounts for it (spec.md §4.G, GLOSSARY "Equilibrium
// depth").
const historyShadow = 53 * 24 * time.Hour

// PolygonFilter applies time-windowed per-polygon adjustments to weather
// observations (spec.md §4.G).
type PolygonFilter struct {
	Start, End time.Time
	Polygons   geom.Polygon
	Landscape  bool // universal filter, skips the point-in-polygon test

	TempOp, RHOp, PrecipOp, WSOp, WDOp FilterOp
	TempVal, RHVal, PrecipVal, WSVal, WDVal float64
}

// inWindow reports whether t falls in [Start, End] inclusive (spec.md §8
// invariant 11: the filter applies at End, not one microsecond after).
func (f *PolygonFilter) inWindow(t time.Time) bool {
	return !t.Before(f.Start) && !t.After(f.End)
}

func (f *PolygonFilter) inHistoryShadow(t time.Time) bool {
	if t.After(f.End) {
		return t.Sub(f.End) <= historyShadow
	}
	return false
}

func (f *PolygonFilter) covers(pt geom.Point) bool {
	if f.Landscape {
		return true
	}
	w := pt.Within(f.Polygons)
	return w == geom.Inside || w == geom.OnEdge
}

// Apply mutates obs in place per the filter's five fixed-order operations
// (temperature, RH, precipitation, wind speed, wind direction), and returns
// whether any change was made.
func (f *PolygonFilter) Apply(pt geom.Point, t time.Time, obs *HourlyObservation) bool {
	if !f.covers(pt) {
		return false
	}
	if f.inWindow(t) {
		tempOrRHChanged := false
		if applyOp(f.TempOp, f.TempVal, &obs.Temperature, &obs.Specified, SpecifiedTemperature, OverrodeTemperature) {
			tempOrRHChanged = true
		}
		if applyOp(f.RHOp, f.RHVal, &obs.RH, &obs.Specified, SpecifiedRH, OverrodeRH) {
			tempOrRHChanged = true
		}
		applyOp(f.PrecipOp, f.PrecipVal, &obs.Precip, &obs.Specified, SpecifiedPrecip, OverrodePrecip)
		applyOp(f.WSOp, f.WSVal, &obs.WindSpeed, &obs.Specified, SpecifiedWindSpeed, OverrodeWindSpeed)
		if f.WDOp != OpNone && f.WDOp != OpMul && f.WDOp != OpDiv {
			applyOp(f.WDOp, f.WDVal, &obs.WindDirection, &obs.Specified, SpecifiedWindDirection, OverrodeWindDirection)
		}
		if tempOrRHChanged {
			obs.DewPoint = diurnal.DewPoint(obs.Temperature, obs.RH)
			obs.Specified |= OverrodeDewPoint
		}
		return true
	}
	if f.inHistoryShadow(t) {
		if f.TempOp != OpNone {
			obs.Specified |= OverrodeHistoryTemperature
		}
		if f.RHOp != OpNone {
			obs.Specified |= OverrodeHistoryRH
		}
		if f.PrecipOp != OpNone {
			obs.Specified |= OverrodeHistoryPrecip
		}
		if f.WSOp != OpNone {
			obs.Specified |= OverrodeHistoryWindSpeed
		}
		if f.WDOp != OpNone {
			obs.Specified |= OverrodeHistoryWindDirection
		}
		return true
	}
	return false
}

// applyOp applies a single (operation, value) pair to field, updating the
// flag word. Returns whether the field was touched.
func applyOp(op FilterOp, val float64, field *float64, bits *SpecifiedBits, specifiedBit, overrodeBit SpecifiedBits) bool {
	switch op {
	case OpNone:
		return false
	case OpSet:
		*field = val
		*bits = (*bits &^ specifiedBit) | overrodeBit
	case OpAdd:
		*field += val
		*bits = (*bits &^ specifiedBit) | overrodeBit
	case OpSub:
		*field -= val
		*bits = (*bits &^ specifiedBit) | overrodeBit
	case OpMul:
		*field *= math.Abs(val)
		*bits = (*bits &^ specifiedBit) | overrodeBit
	case OpDiv:
		v := math.Abs(val)
		if v == 0 {
			*field = 0
		} else {
			*field /= v
		}
		*bits |= specifiedBit | overrodeBit
	default:
		return false
	}
	return true
}
