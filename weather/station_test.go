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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ctessum/geom"
)

func TestNewStationDefaultsToSeaLevelPressure(t *testing.T) {
	s := NewStation("KXXX")
	if _, ok := s.Elevation(); ok {
		t.Fatal("expected no elevation set on a new station")
	}
	if math.Abs(s.Pressure()-pressureP0) > 1e-9 {
		t.Fatalf("expected sea-level pressure %v, got %v", pressureP0, s.Pressure())
	}
}

func TestSetElevationLowersPressure(t *testing.T) {
	s := NewStation("KXXX")
	s.SetElevation(1500)
	if s.Pressure() >= pressureP0 {
		t.Fatalf("expected pressure below sea level, got %v", s.Pressure())
	}
	if meters, ok := s.Elevation(); !ok || meters != 1500 {
		t.Fatalf("got elevation %v, %v", meters, ok)
	}
}

func TestAddStreamRejectsDuplicate(t *testing.T) {
	s := NewStation("KXXX")
	str := NewStream(time.UTC)
	if err := s.AddStream(str); err != nil {
		t.Fatal(err)
	}
	err := s.AddStream(str)
	if !errors.Is(err, ErrKind(StreamAlreadyAdded)) {
		t.Fatalf("expected StreamAlreadyAdded, got %v", err)
	}
}

func TestRemoveStreamClearsOwnership(t *testing.T) {
	s := NewStation("KXXX")
	str := NewStream(time.UTC)
	s.AddStream(str)
	s.RemoveStream(str)
	if len(s.Streams()) != 0 {
		t.Fatal("expected stream list to be empty after removal")
	}
	if str.Station != nil {
		t.Fatal("expected stream's Station back-reference to be cleared")
	}
}

func TestSetElevationInvalidatesOwnedStreams(t *testing.T) {
	s := NewStation("KXXX")
	str := NewStream(time.UTC)
	s.AddStream(str)

	str.cacheMu.Lock()
	str.cache[streamCacheKey{t: 1, flags: 0}] = streamCacheEntry{}
	str.cacheMu.Unlock()

	s.SetElevation(200)

	str.cacheMu.RLock()
	n := len(str.cache)
	str.cacheMu.RUnlock()
	if n != 0 {
		t.Fatal("expected owned stream's cache to be cleared on elevation change")
	}
}

func TestDistanceSquared(t *testing.T) {
	a := geom.Point{X: 0, Y: 0}
	b := geom.Point{X: 3, Y: 4}
	if got := distanceSquared(a, b); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
}
