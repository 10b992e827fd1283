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

	"github.com/ctessum/geom"
)

// OverrideKind distinguishes the two sectored override grid variants.
type OverrideKind int

const (
	OverrideWindSpeed OverrideKind = iota
	OverrideWindDirection
)

// SectorEntry is one (wind_speed, cell values) row within a sector
// (spec.md §3, Sectored override grid). Values is indexed the same way as
// the grid engine's cell array; wind-speed grids store tenths of km/h,
// wind-direction grids store whole compass degrees, per the spec's storage
// note — callers convert at the boundary; Values here hold km/h for
// wind-speed grids and compass degrees for wind-direction grids (set
// converts degrees to radians when applying an override).
type SectorEntry struct {
	WindSpeed float64
	Values    map[geom.Point]float64
	Valid     map[geom.Point]bool
}

// Sector is an angular slice [MinDeg, MaxDeg) of wind-direction space,
// wrapping through 0 when MaxDeg < MinDeg.
type Sector struct {
	MinDeg, MaxDeg float64
	Entries        []SectorEntry
}

// Contains reports whether angleDeg falls in [MinDeg, MaxDeg), honouring
// wrap-through-0 sectors (spec.md §8 invariant 12: half-open interval).
func (s Sector) Contains(angleDeg float64) bool {
	a := math.Mod(angleDeg, 360)
	if a < 0 {
		a += 360
	}
	if s.MinDeg <= s.MaxDeg {
		return a >= s.MinDeg && a < s.MaxDeg
	}
	return a >= s.MinDeg || a < s.MaxDeg
}

// OverrideGrid is a sectored wind-speed or wind-direction override raster
// (spec.md §4.H).
type OverrideGrid struct {
	Kind OverrideKind

	Sectors []Sector
	Default *SectorEntry

	StartTime, EndTime         time.Time
	StartSpan, EndSpan         time.Duration // diurnal window, offsets from LST midnight

	ApplySectors bool
	ApplyDefault bool
}

func (g *OverrideGrid) inWindow(t time.Time, lstMidnight time.Time) bool {
	if t.Before(g.StartTime) || t.After(g.EndTime) {
		return false
	}
	offset := t.Sub(lstMidnight)
	return offset >= g.StartSpan && offset < g.EndSpan
}

func (g *OverrideGrid) inHistoryShadow(t time.Time) bool {
	return t.After(g.EndTime) && t.Sub(g.EndTime) <= historyShadow
}

func (g *OverrideGrid) findSector(angleDeg float64) *Sector {
	for i := range g.Sectors {
		if g.Sectors[i].Contains(angleDeg) {
			return &g.Sectors[i]
		}
	}
	return nil
}

// lookupEntry returns the cell value of the two entries bracketing
// queryWS, linearly interpolated along the wind-speed axis, scaled per
// spec.md §4.H ("the per-cell value is scaled by query_ws / sector_entry_ws").
func lookupEntry(entries []SectorEntry, pt geom.Point, queryWS float64, isDirection bool) (float64, bool) {
	if len(entries) == 0 {
		return 0, false
	}
	var lower, upper *SectorEntry
	for i := range entries {
		e := &entries[i]
		if !e.Valid[pt] {
			continue
		}
		if e.WindSpeed == queryWS {
			return e.Values[pt], true
		}
		if e.WindSpeed < queryWS && (lower == nil || e.WindSpeed > lower.WindSpeed) {
			lower = e
		}
		if e.WindSpeed > queryWS && (upper == nil || e.WindSpeed < upper.WindSpeed) {
			upper = e
		}
	}
	switch {
	case lower != nil && upper != nil:
		frac := (queryWS - lower.WindSpeed) / (upper.WindSpeed - lower.WindSpeed)
		if isDirection {
			diff := math.Mod(upper.Values[pt]-lower.Values[pt]+180, 360)
			if diff < 0 {
				diff += 360
			}
			diff -= 180
			wd := lower.Values[pt] + diff*frac
			wd = math.Mod(wd+360, 360)
			return wd, true
		}
		v := lower.Values[pt] + (upper.Values[pt]-lower.Values[pt])*frac
		return v, true
	case lower != nil:
		v := lower.Values[pt]
		if !isDirection && lower.WindSpeed != 0 {
			v *= queryWS / lower.WindSpeed
		}
		return v, true
	case upper != nil:
		v := upper.Values[pt]
		if !isDirection && upper.WindSpeed != 0 {
			v *= queryWS / upper.WindSpeed
		}
		return v, true
	}
	return 0, false
}

// Apply looks up this grid's override for pt/t, using the primary stream's
// current wind reading to select a sector, and mutates obs in place
// (spec.md §4.H). lstMidnight is the LST midnight of the day containing t.
func (g *OverrideGrid) Apply(pt geom.Point, t, lstMidnight time.Time, primaryWS, primaryWDDeg float64, obs *HourlyObservation) {
	if g.inWindow(t, lstMidnight) {
		if g.ApplyDefault && g.Default != nil {
			if v, ok := g.Default.Values[pt]; ok && g.Default.Valid[pt] {
				g.set(obs, v)
			}
		}
		if g.ApplySectors {
			if sec := g.findSector(primaryWDDeg); sec != nil {
				if v, ok := lookupEntry(sec.Entries, pt, primaryWS, g.Kind == OverrideWindDirection); ok {
					g.set(obs, v)
				}
			}
		}
		return
	}
	if g.inHistoryShadow(t) {
		if g.Kind == OverrideWindSpeed {
			obs.Specified |= OverrodeHistoryWindSpeed
		} else {
			obs.Specified |= OverrodeHistoryWindDirection
		}
	}
}

func (g *OverrideGrid) set(obs *HourlyObservation, v float64) {
	if g.Kind == OverrideWindSpeed {
		obs.WindSpeed = v
		obs.Specified |= OverrodeWindSpeed
	} else {
		obs.WindDirection = v * math.Pi / 180
		obs.Specified |= OverrodeWindDirection
	}
}
