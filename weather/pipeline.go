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
	"sync"
	"time"

	"github.com/ctessum/fwxgrid/cache"
	"github.com/ctessum/fwxgrid/fwi"
	"github.com/ctessum/fwxgrid/internal/hash"
	"github.com/ctessum/geom"
)

// equilibriumDepth is how far back daily FWI recomputation must walk
// before it is treated as converged (spec.md GLOSSARY "Equilibrium
// depth").
const equilibriumDepth = 53 * 24 * time.Hour

// CacheValue is the payload the query cache stores for one (cell, time,
// flags) key (spec.md §3, Cache value).
type CacheValue struct {
	Hour  int
	Wx    IWXData
	IFWI  IFWIData
	DFWI  DFWIData
	Valid bool
}

// Pipeline is the GetCalculatedValues driver orchestrating cache lookup,
// spatial aggregation, filter/override application, and FWI
// recomputation (spec.md §4.I).
type Pipeline struct {
	mu sync.RWMutex

	Grid          *Grid
	Filters       []*PolygonFilter
	OverrideGrids []*OverrideGrid

	Cache *cache.WeatherCache[CacheValue]
	Layer cache.LayerHandle

	LowerLeft geom.Point
	CellSize  float64
	XSize     int
	YSize     int

	// EquilibriumTime is set by the simulator before stepping forward;
	// queries at or before EquilibriumTime - 53d use the starting-codes
	// shortcut (spec.md §4.I step 5).
	EquilibriumTime time.Time
}

// NewPipeline creates a pipeline backed by a fresh query cache sized for
// the given grid dimensions.
func NewPipeline(grid *Grid, lowerLeft geom.Point, cellSize float64, xsize, ysize int) *Pipeline {
	c := cache.New[CacheValue]()
	p := &Pipeline{
		Grid:      grid,
		Cache:     c,
		LowerLeft: lowerLeft,
		CellSize:  cellSize,
		XSize:     xsize,
		YSize:     ysize,
	}
	p.Layer = c.NewLayer(xsize, ysize)
	return p
}

func (p *Pipeline) cellIndex(pt geom.Point) (int, int) {
	x := int((pt.X - p.LowerLeft.X) / p.CellSize)
	y := int((pt.Y - p.LowerLeft.Y) / p.CellSize)
	return x, y
}

func snapToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

// fetchRaw resolves the grid-spatial weather at pt/t, then applies every
// polygon filter and sectored override grid outward-to-inward (spec.md
// §4.I step 3).
func (p *Pipeline) fetchRaw(pt geom.Point, t time.Time, flags InterpolationFlags) (IWXData, error) {
	wx, err := p.Grid.GetInstantaneous(pt, t, flags)
	if err != nil {
		return IWXData{}, err
	}
	for _, f := range p.Filters {
		f.Apply(pt, t, &wx.HourlyObservation)
	}
	if len(p.OverrideGrids) > 0 {
		primary := p.Grid.Primary()
		var primaryWS, primaryWD float64
		if primary != nil {
			if pwx, _, _, err := primary.GetInstantaneous(t, flags); err == nil {
				primaryWS = pwx.WindSpeed
				primaryWD = radToDeg(pwx.WindDirection)
			}
		}
		lstMidnight := t.Truncate(24 * time.Hour)
		for _, og := range p.OverrideGrids {
			og.Apply(pt, t, lstMidnight, primaryWS, primaryWD, &wx.HourlyObservation)
		}
	}
	return wx, nil
}

// GetCalculatedValues is the query entry point: weather and FWI state at
// a grid point and time, composed per spec.md §4.I.
func (p *Pipeline) GetCalculatedValues(pt geom.Point, t time.Time, flags InterpolationFlags) (IWXData, IFWIData, DFWIData, error) {
	if !flags.Has(InterpolateTemporal) {
		t = snapToHour(t)
	}

	x, y := p.cellIndex(pt)
	alt := flags.Has(AlternateCache)
	queryKey := struct {
		X, Y  int
		T     time.Time
		Flags InterpolationFlags
	}{x, y, t, flags}
	if !flags.Has(IgnoreCache) {
		if v, ok := p.Cache.Get(p.Layer, alt, x, y, t, uint32(flags)); ok && v.Valid {
			log.WithField("key", hash.Key(queryKey)).Debug("cache hit")
			return v.Wx, v.IFWI, v.DFWI, nil
		}
	}

	wx, err := p.fetchRaw(pt, t, flags)
	if err != nil {
		return IWXData{}, IFWIData{}, DFWIData{}, err
	}

	var ifwi IFWIData
	var dfwi DFWIData
	if !wx.Specified.Any(overrideMask) && !flags.Has(InterpolateSpatial) && !flags.Has(InterpolateHistory) {
		dfwi, ifwi = p.rawFWI(t)
	} else if !t.After(p.EquilibriumTime.Add(-equilibriumDepth)) {
		dfwi = p.startingCodesFWI()
		log.WithField("time", t).Debug("query past equilibrium horizon, using starting codes")
	} else {
		dfwi = p.getCalculatedDFWI(pt, t, flags)
		ifwi = p.getCalculatedIFWI(pt, t, flags, dfwi)
	}

	result := CacheValue{Hour: t.Hour(), Wx: wx, IFWI: ifwi, DFWI: dfwi, Valid: true}
	p.Cache.Store(p.Layer, alt, x, y, t, uint32(flags), result)
	return wx, ifwi, dfwi, nil
}

// rawFWI reads the nearest/primary stream's already-computed daily and
// instantaneous FWI state directly, with no spatial recomposition (spec.md
// §4.I step 4).
func (p *Pipeline) rawFWI(t time.Time) (DFWIData, IFWIData) {
	primary := p.Grid.Primary()
	if primary == nil {
		return DFWIData{}, IFWIData{}
	}
	_, ifwi, dfwi, err := primary.GetInstantaneous(t, 0)
	if err != nil {
		return DFWIData{}, IFWIData{}
	}
	return dfwi, ifwi
}

func (p *Pipeline) startingCodesFWI() DFWIData {
	primary := p.Grid.Primary()
	if primary == nil {
		return DFWIData{}
	}
	sc := primary.Starting
	return DFWIData{
		FFMC: FWICode{Specified: Unset, Calculated: sc.FFMC},
		DMC:  FWICode{Specified: Unset, Calculated: sc.DMC},
		DC:   FWICode{Specified: Unset, Calculated: sc.DC},
		BUI:  FWICode{Specified: Unset, Calculated: sc.BUI},
	}
}

// getCalculatedDFWI recomputes today's daily FWI codes from yesterday's
// spatially-interpolated daily codes and today's spatially-interpolated
// weather at day-start (spec.md §4.I step 6).
func (p *Pipeline) getCalculatedDFWI(pt geom.Point, t time.Time, flags InterpolationFlags) DFWIData {
	dayStart := t.Truncate(24 * time.Hour)
	yesterday := dayStart.Add(-24 * time.Hour)

	yesterdayCodes, err := p.Grid.GetSpatialDFWI(pt, yesterday, flags)
	if err != nil {
		yesterdayCodes = p.startingCodesFWI()
	}

	wx, err := p.fetchRaw(pt, dayStart, flags)
	if err != nil {
		return yesterdayCodes
	}

	var rain24 float64
	for h := 0; h < 24; h++ {
		hourTime := dayStart.Add(-24*time.Hour + time.Duration(h)*time.Hour)
		if hw, err := p.fetchRaw(pt, hourTime, flags); err == nil {
			rain24 += hw.Precip
		}
	}

	honour := p.Grid.Primary() != nil && p.Grid.Primary().UserSpecified
	month := int(dayStart.Month())
	latRad := 0.0
	if station := p.Grid.Primary(); station != nil && station.Station != nil {
		if lat, _, ok := station.Station.LatLon(); ok {
			latRad = lat
		}
	}

	var out DFWIData
	out.DC.Calculated = fwi.DC(yesterdayCodes.DC.Value(honour), wx.Temperature, rain24, latRad, month)
	out.DMC.Calculated = fwi.DMC(yesterdayCodes.DMC.Value(honour), wx.Temperature, wx.RH*100, rain24, latRad, month)
	out.FFMC.Calculated = fwi.DailyFFMC(yesterdayCodes.FFMC.Value(honour), rain24, wx.Temperature, wx.RH*100, wx.WindSpeed)
	out.BUI.Calculated = fwi.BUI(out.DC.Value(honour), out.DMC.Value(honour))
	out.ISI.Calculated = fwi.ISI(out.FFMC.Value(honour), wx.WindSpeed, 3600)
	out.FWI.Calculated = fwi.FWI(out.ISI.Value(honour), out.BUI.Value(honour))
	return out
}

// getCalculatedIFWI recomputes the hourly FFMC/ISI/FWI at t (spec.md §4.I
// step 7), using the primary stream's FFMC method.
func (p *Pipeline) getCalculatedIFWI(pt geom.Point, t time.Time, flags InterpolationFlags, today DFWIData) IFWIData {
	primary := p.Grid.Primary()
	if primary == nil {
		return IFWIData{}
	}
	honour := primary.UserSpecified

	var ffmc float64
	switch primary.Method {
	case FFMCLawson:
		before, err1 := p.fetchRaw(pt, t.Add(-time.Hour), flags)
		after, err2 := p.fetchRaw(pt, t.Add(time.Hour), flags)
		at, err3 := p.fetchRaw(pt, t, flags)
		rhBefore, rhAt, rhAfter := at.RH*100, at.RH*100, at.RH*100
		if err1 == nil {
			rhBefore = before.RH * 100
		}
		if err3 == nil {
			rhAt = at.RH * 100
		}
		if err2 == nil {
			rhAfter = after.RH * 100
		}
		dayStart := t.Truncate(24 * time.Hour)
		yesterday := dayStart.Add(-24 * time.Hour)
		_, _, yesterdayCodes, err := primary.GetInstantaneous(yesterday, flags)
		yesterdayFFMC := today.FFMC.Value(honour)
		if err == nil {
			yesterdayFFMC = yesterdayCodes.FFMC.Value(honour)
		}
		secLST := float64(t.Sub(dayStart) / time.Second)
		ffmc = fwi.HourlyFFMCLawson(yesterdayFFMC, today.FFMC.Value(honour), at.Precip, at.Temperature, rhBefore, rhAt, rhAfter, at.WindSpeed, secLST)
	default:
		prevEvent, _ := p.Grid.GetEventTime(t, Backward)
		_, prevIFWI, _, err := primary.GetInstantaneous(prevEvent, flags)
		prevFFMC := today.FFMC.Value(honour)
		if err == nil {
			prevFFMC = prevIFWI.FFMC.Value(honour)
		}
		at, errAt := p.fetchRaw(pt, t, flags)
		elapsed := t.Sub(prevEvent).Seconds()
		if errAt == nil {
			ffmc = fwi.HourlyFFMCVanWagner(prevFFMC, at.Precip, at.Temperature, at.RH*100, at.WindSpeed, elapsed)
		} else {
			ffmc = prevFFMC
		}
	}

	wx, _ := p.fetchRaw(pt, t, flags)
	isi := fwi.ISI(ffmc, wx.WindSpeed, 3600)
	out := IFWIData{
		FFMC: FWICode{Specified: Unset, Calculated: ffmc},
		ISI:  FWICode{Specified: Unset, Calculated: isi},
	}
	out.FWI.Calculated = fwi.FWI(out.ISI.Value(honour), today.BUI.Value(honour))
	return out
}
