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

	"github.com/ctessum/geom"
)

// Barometric formula constants for Station.pressure (spec.md §4.F.3).
const (
	lapseRateL0 = 0.00649  // K/m, standard atmosphere
	pressureP0  = 101.325  // kPa at sea level
	tempT0      = 288.15   // K at sea level
	gravityG    = 9.80665  // m/s^2
	molarMassM  = 0.0289644 // kg/mol, dry air
	gasConstR   = 8.3144598 // J/(mol*K)
)

// Station is a spatial anchor owning a set of streams (spec.md §4.E).
type Station struct {
	mu sync.RWMutex

	id string

	hasLatLon bool
	lat, lon  float64 // radians

	hasProjected bool
	loc          geom.Point // projected (x, y)

	hasElevation bool
	elevation    float64 // m

	pressure float64 // kPa, precomputed from elevation

	streams []*Stream
}

// NewStation creates a station identified by id, with no location set yet.
func NewStation(id string) *Station {
	s := &Station{id: id}
	s.recomputePressure()
	return s
}

// ID returns the station's identifier (source name / StationID column).
func (s *Station) ID() string { return s.id }

// SetLatLon records the station's geographic location in radians and
// invalidates dependent state. The projected location is left stale until
// a CRS converter (external collaborator, §6) supplies it via SetProjected.
func (s *Station) SetLatLon(latRad, lonRad float64) {
	s.mu.Lock()
	s.lat, s.lon = latRad, lonRad
	s.hasLatLon = true
	s.mu.Unlock()
	s.invalidateStreams()
}

// LatLon returns the station's geographic location and whether it has
// been set.
func (s *Station) LatLon() (lat, lon float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lat, s.lon, s.hasLatLon
}

// SetProjected records the station's grid-projected location, as supplied
// by the host grid engine's CRS converter.
func (s *Station) SetProjected(loc geom.Point) {
	s.mu.Lock()
	s.loc = loc
	s.hasProjected = true
	s.mu.Unlock()
	s.invalidateStreams()
}

// Projected returns the station's projected location and whether it has
// been set.
func (s *Station) Projected() (geom.Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loc, s.hasProjected
}

// SetElevation records the station's elevation in meters and recomputes
// its cached atmospheric pressure.
func (s *Station) SetElevation(meters float64) {
	s.mu.Lock()
	s.elevation = meters
	s.hasElevation = true
	s.recomputePressure()
	s.mu.Unlock()
	s.invalidateStreams()
}

// Elevation returns the station's elevation (0 and ok=false when unset, per
// spec.md §9 Open Questions: pressure still assumes sea level in that case).
func (s *Station) Elevation() (meters float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elevation, s.hasElevation
}

// Pressure returns the station's precomputed atmospheric pressure in kPa.
func (s *Station) Pressure() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pressure
}

// recomputePressure applies the barometric formula with h=0 when elevation
// is unset. Caller must hold s.mu.
func (s *Station) recomputePressure() {
	h := s.elevation
	exponent := (gravityG * molarMassM) / (gasConstR * lapseRateL0)
	s.pressure = pressureP0 * math.Pow(tempT0/(tempT0+lapseRateL0*h), exponent)
}

// AddStream binds a stream to this station. It fails if the stream is
// already owned by this station.
func (s *Station) AddStream(str *Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.streams {
		if existing == str {
			return newErr(StreamAlreadyAdded, "stream already bound to station %s", s.id)
		}
	}
	s.streams = append(s.streams, str)
	str.Station = s
	return nil
}

// RemoveStream unbinds a stream from this station, if present.
func (s *Station) RemoveStream(str *Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.streams {
		if existing == str {
			s.streams = append(s.streams[:i], s.streams[i+1:]...)
			str.Station = nil
			return
		}
	}
}

// Streams returns the station's owned streams.
func (s *Station) Streams() []*Stream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Stream, len(s.streams))
	copy(out, s.streams)
	return out
}

// invalidateStreams clears every owned stream's query cache, forcing FWI
// recomputation on next query (spec.md §4.E: a location change invalidates
// all owned streams).
func (s *Station) invalidateStreams() {
	s.mu.RLock()
	streams := make([]*Stream, len(s.streams))
	copy(streams, s.streams)
	s.mu.RUnlock()
	for _, str := range streams {
		str.invalidate()
	}
}

// distanceSquared returns the squared projected distance in grid units
// between two stations, used by Grid's separation invariant (spec.md §4.F).
func distanceSquared(a, b geom.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}
