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

	"github.com/ctessum/fwxgrid/fwi"
	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// GridEngine is the host simulation's grid metadata provider (spec.md §1,
// external collaborator). Only the pieces the weather grid needs are
// exposed here; the rest of the host engine is out of scope.
type GridEngine interface {
	// ElevationAt returns the terrain elevation in meters at the given
	// grid-projected point, and false if no elevation data covers it.
	ElevationAt(pt geom.Point) (meters float64, ok bool)
}

// minStationSeparation is the minimum allowed distance (m) between any two
// stations referenced by one grid (spec.md §3, §4.F).
const minStationSeparation = 100.0

// stationRef is one (stream, station_location_in_grid, elevation,
// pressure) tuple the grid aggregates over (spec.md §3).
type stationRef struct {
	stream *Stream
	loc    geom.Point
	elev   float64
	press  float64
	handle *GridHandle
}

// Grid is the central spatial combinator aggregating multiple streams to a
// query point via IDW (spec.md §4.F).
type Grid struct {
	mu sync.RWMutex

	Engine GridEngine

	refs    []*stationRef
	primary *stationRef

	// IDW exponents, spec.md §6. Temp and FWI must be in (0, 10];
	// WS and precip accept 0 meaning "nearest-neighbour".
	ExpTemp, ExpWS, ExpPrecip, ExpFWI float64

	VectorWind bool
}

// NewGrid creates a grid with the default IDW exponents (2.0 for each).
func NewGrid(engine GridEngine) *Grid {
	return &Grid{Engine: engine, ExpTemp: 2, ExpWS: 2, ExpPrecip: 2, ExpFWI: 2}
}

// AddStream adds a stream to the grid at the given projected location and
// elevation, attaching a grid-reference handle to the stream.
func (g *Grid) AddStream(s *Stream, loc geom.Point, elevation float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.refs {
		if r.stream == s {
			return newErr(StreamAlreadyAdded, "stream already added to grid")
		}
		if r.stream.Station != nil && s.Station != nil && r.stream.Station == s.Station {
			return newErr(StationAlreadyPresent, "two streams from the same station in one grid")
		}
		if distanceSquared(r.loc, loc) < minStationSeparation*minStationSeparation {
			return newErr(StationsTooClose, "stations within %.0f m", minStationSeparation)
		}
	}
	press := pressureP0
	if s.Station != nil {
		press = s.Station.Pressure()
	}
	ref := &stationRef{stream: s, loc: loc, elev: elevation, press: press, handle: s.AttachToGrid()}
	g.refs = append(g.refs, ref)
	if len(g.refs) == 1 {
		g.primary = ref
	}
	return nil
}

// RemoveStream detaches a stream from the grid, releasing its handle.
func (g *Grid) RemoveStream(s *Stream) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, r := range g.refs {
		if r.stream == s {
			r.handle.Detach()
			g.refs = append(g.refs[:i], g.refs[i+1:]...)
			if g.primary == r {
				g.primary = nil
				if len(g.refs) > 0 {
					g.primary = g.refs[0]
				}
			}
			return
		}
	}
}

// Valid enforces the grid's structural invariants (spec.md §4.F Validation).
func (g *Grid) Valid(simStart time.Time, simDuration time.Duration) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.refs) == 0 {
		return newErr(InvalidDates, "grid has no streams")
	}
	if g.primary == nil {
		return newErr(InvalidDates, "grid has no resolved primary stream")
	}
	for i, a := range g.refs {
		for j, b := range g.refs {
			if i >= j {
				continue
			}
			if distanceSquared(a.loc, b.loc) < minStationSeparation*minStationSeparation {
				return newErr(StationsTooClose, "stations within %.0f m", minStationSeparation)
			}
		}
	}
	// One stream's valid range must cover [simStart, simStart+duration] on its
	// own; coverage pieced together from several streams is not accepted.
	simEnd := simStart.Add(simDuration)
	for _, r := range g.refs {
		if !r.stream.StartTime().After(simStart) && !r.stream.EndTime().Before(simEnd) {
			return nil // a single stream covers the whole window
		}
	}
	return newErr(InvalidDates, "no contiguous coverage of the simulation window")
}

// idwWeight returns the IDW weight for squared distance d2 at exponent exp
// (spec.md §4.F, §8 invariant 13: capped at 5 for near-coincident points).
func idwWeight(d2, exp float64) float64 {
	if d2 <= 1 {
		return 5
	}
	return math.Pow(1/d2, exp/2)
}

const (
	lapseLv  = 2.501e6
	lapseR   = 287.0
	lapseG   = -9.80665
	lapseCpd = 1005.7
	lapseEps = 0.621885
)

func vaporPressureSatKPa(tC float64) float64 {
	return 0.6112 * math.Pow(10, 7.5*tC/(237.7+tC))
}

// lapseRates returns the unsaturated and saturated adiabatic lapse rates
// at temperature tC (°C) and relative humidity rh (fraction), given
// station pressure pKPa (spec.md §4.F.2).
func lapseRates(tC, rh, pKPa float64) (ualr, salr float64) {
	tK := tC + 273.15
	vps := vaporPressureSatKPa(tC)
	vp := rh * vps
	rv := 0.622 * vp / (pKPa - vp)
	rvs := 0.622 * vps / (pKPa - vps)
	ualr = (lapseG * (1 + lapseLv*rv/(lapseR*tK))) / (lapseCpd + lapseLv*lapseLv*rv*lapseEps/(lapseR*tK*tK))
	salr = (lapseG * (1 + lapseLv*rvs/(lapseR*tK))) / (lapseCpd + lapseLv*lapseLv*rvs*lapseEps/(lapseR*tK*tK))
	return ualr, salr
}

// relativeHumidityFromTd inverts the vapour-pressure formula to recover RH
// from temperature and dew point, clamped to [0, 1] (spec.md §4.F.2).
func relativeHumidityFromTd(tC, tdC float64) float64 {
	vp := vaporPressureSatKPa(tdC)
	vps := vaporPressureSatKPa(tC)
	if vps <= 0 {
		return 0
	}
	rh := vp / vps
	if rh < 0 {
		rh = 0
	}
	if rh > 1 {
		rh = 1
	}
	return rh
}

const overrideTolerance = 1e-7

// GetInstantaneous aggregates every referenced stream's instantaneous
// weather at pt and t (spec.md §4.F).
func (g *Grid) GetInstantaneous(pt geom.Point, t time.Time, flags InterpolationFlags) (IWXData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if flags.Has(QueryPrimaryWxStream) || !flags.Has(InterpolateSpatial) {
		ref := g.primary
		if ref == nil {
			return IWXData{}, newErr(GridUninitialized, "no primary stream")
		}
		wx, _, _, err := ref.stream.GetInstantaneous(t, flags)
		return wx, err
	}
	if len(g.refs) == 0 {
		return IWXData{}, newErr(GridUninitialized, "grid has no streams")
	}

	type sample struct {
		ref *stationRef
		obs HourlyObservation
		d2  float64
	}
	samples := make([]sample, 0, len(g.refs))
	for _, ref := range g.refs {
		wx, _, _, err := ref.stream.GetInstantaneous(t, flags)
		if err != nil {
			continue
		}
		samples = append(samples, sample{ref: ref, obs: wx.HourlyObservation, d2: distanceSquared(ref.loc, pt)})
	}
	if len(samples) == 0 {
		return IWXData{}, newErr(GridUninitialized, "no stream produced a valid sample")
	}

	nearest := samples[0]
	for _, s := range samples[1:] {
		if s.d2 < nearest.d2 {
			nearest = s
		}
	}

	tempWeights := make([]float64, len(samples))
	tempVals := make([]float64, len(samples))
	dpVals := make([]float64, len(samples))
	ualrVals := make([]float64, len(samples))
	salrVals := make([]float64, len(samples))
	wsWeights := make([]float64, len(samples))
	wsVals := make([]float64, len(samples))
	wsx := make([]float64, len(samples))
	wsy := make([]float64, len(samples))
	precipWeights := make([]float64, len(samples))
	precipVals := make([]float64, len(samples))

	for i, s := range samples {
		w := idwWeight(s.d2, g.ExpTemp)
		ualr, salr := lapseRates(s.obs.Temperature, s.obs.RH, s.ref.press)
		tempWeights[i] = w
		tempVals[i] = w * (s.obs.Temperature - ualr*s.ref.elev)
		dpVals[i] = w * (s.obs.DewPoint - salr*s.ref.elev)
		ualrVals[i] = w * ualr
		salrVals[i] = w * salr

		wsExp := g.ExpWS
		var wsW float64
		if wsExp == 0 {
			if s.ref == nearest.ref {
				wsW = 1
			}
		} else {
			wsW = idwWeight(s.d2, wsExp)
		}
		wsWeights[i] = wsW
		wsVals[i] = wsW * s.obs.WindSpeed
		wsx[i] = wsW * s.obs.WindSpeed * math.Cos(s.obs.WindDirection)
		wsy[i] = wsW * s.obs.WindSpeed * math.Sin(s.obs.WindDirection)

		precipExp := g.ExpPrecip
		var pW float64
		if precipExp == 0 {
			if s.ref == nearest.ref {
				pW = 1
			}
		} else {
			pW = idwWeight(s.d2, precipExp)
		}
		precipWeights[i] = pW
		precipVals[i] = pW * s.obs.Precip
	}

	sumTempW := floats.Sum(tempWeights)
	meanT := floats.Sum(tempVals) / sumTempW
	meanTd := floats.Sum(dpVals) / sumTempW
	meanUALR := floats.Sum(ualrVals) / sumTempW
	meanSALR := floats.Sum(salrVals) / sumTempW

	var ws, wd float64
	sumWSW := floats.Sum(wsWeights)
	if g.VectorWind {
		sx, sy := floats.Sum(wsx), floats.Sum(wsy)
		wd = math.Atan2(sy, sx)
		if wd < 0 {
			wd += 2 * math.Pi
		}
		ws = math.Hypot(sx, sy) / sumWSW
	} else {
		ws = floats.Sum(wsVals) / sumWSW
		wd = nearest.obs.WindDirection
	}

	sumPW := floats.Sum(precipWeights)
	precip := floats.Sum(precipVals) / sumPW

	elevCell := nearest.ref.elev
	if g.Engine != nil {
		if e, ok := g.Engine.ElevationAt(pt); ok {
			elevCell = e
		} else {
			return IWXData{}, newErr(OutOfMemory, "elevation data absent at query point")
		}
	}
	tCell := meanT + meanUALR*elevCell
	tdCell := meanTd + meanSALR*elevCell
	rhCell := relativeHumidityFromTd(tCell, tdCell)

	out := HourlyObservation{
		Temperature:   tCell,
		DewPoint:      tdCell,
		RH:            rhCell,
		Precip:        precip,
		WindSpeed:     ws,
		WindDirection: wd,
	}
	if math.Abs(out.Temperature-nearest.obs.Temperature) > overrideTolerance {
		out.Specified |= OverrodeTemperature
	}
	if math.Abs(out.DewPoint-nearest.obs.DewPoint) > overrideTolerance {
		out.Specified |= OverrodeDewPoint
	}
	if math.Abs(out.RH-nearest.obs.RH) > overrideTolerance {
		out.Specified |= OverrodeRH
	}
	if math.Abs(out.WindSpeed-nearest.obs.WindSpeed) > overrideTolerance {
		out.Specified |= OverrodeWindSpeed
	}
	if math.Abs(out.WindDirection-nearest.obs.WindDirection) > overrideTolerance {
		out.Specified |= OverrodeWindDirection
	}
	if math.Abs(out.Precip-nearest.obs.Precip) > overrideTolerance {
		out.Specified |= OverrodePrecip
	}
	return IWXData{out}, nil
}

// Primary returns the grid's primary stream, if resolved.
func (g *Grid) Primary() *Stream {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.primary == nil {
		return nil
	}
	return g.primary.stream
}

// GetEventTime delegates to the primary stream, which is the reference
// clock the pipeline's Van Wagner backward walk (§4.I step 7) uses.
func (g *Grid) GetEventTime(from time.Time, dir EventDirection) (time.Time, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.primary == nil {
		return time.Time{}, false
	}
	return g.primary.stream.GetEventTime(from, dir)
}

// GetSpatialDFWI IDW-aggregates every referenced stream's daily FWI codes
// at pt and t using ExpFWI (spec.md §4.I step 6, IDW_EXPONENT_FWI). With a
// single stream this reduces to that stream's own codes, matching the
// primary-only behaviour used everywhere else in the grid.
func (g *Grid) GetSpatialDFWI(pt geom.Point, t time.Time, flags InterpolationFlags) (DFWIData, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.refs) == 0 {
		return DFWIData{}, newErr(GridUninitialized, "grid has no streams")
	}
	if len(g.refs) == 1 {
		_, _, dfwi, err := g.refs[0].stream.GetInstantaneous(t, flags)
		return dfwi, err
	}

	var weight, ffmcSum, dmcSum, dcSum float64
	for _, ref := range g.refs {
		_, _, dfwi, err := ref.stream.GetInstantaneous(t, flags)
		if err != nil {
			continue
		}
		w := idwWeight(distanceSquared(ref.loc, pt), g.ExpFWI)
		ffmcSum += w * dfwi.FFMC.Calculated
		dmcSum += w * dfwi.DMC.Calculated
		dcSum += w * dfwi.DC.Calculated
		weight += w
	}
	if weight == 0 {
		return DFWIData{}, newErr(GridUninitialized, "no stream produced a valid daily FWI sample")
	}

	out := DFWIData{
		FFMC: FWICode{Specified: Unset, Calculated: ffmcSum / weight},
		DMC:  FWICode{Specified: Unset, Calculated: dmcSum / weight},
		DC:   FWICode{Specified: Unset, Calculated: dcSum / weight},
	}
	out.BUI.Calculated = fwi.BUI(out.DC.Calculated, out.DMC.Calculated)
	return out, nil
}
