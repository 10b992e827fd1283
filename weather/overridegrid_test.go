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
	"testing"
	"time"

	"github.com/ctessum/geom"
)

func TestSectorContainsWrapsThroughZero(t *testing.T) {
	s := Sector{MinDeg: 350, MaxDeg: 10}
	for _, deg := range []float64{350, 355, 0, 5} {
		if !s.Contains(deg) {
			t.Fatalf("expected %v to be contained in the wrapping sector", deg)
		}
	}
	if s.Contains(10) {
		t.Fatal("upper bound is exclusive, expected 10 to not be contained")
	}
	if s.Contains(180) {
		t.Fatal("expected 180 to fall outside the wrapping sector")
	}
}

func TestSectorContainsHalfOpenInterval(t *testing.T) {
	s := Sector{MinDeg: 45, MaxDeg: 90}
	if !s.Contains(45) {
		t.Fatal("lower bound is inclusive")
	}
	if s.Contains(90) {
		t.Fatal("upper bound is exclusive")
	}
}

func TestLookupEntryExactMatch(t *testing.T) {
	pt := geom.Point{X: 1, Y: 1}
	entries := []SectorEntry{
		{WindSpeed: 10, Values: map[geom.Point]float64{pt: 42}, Valid: map[geom.Point]bool{pt: true}},
	}
	v, ok := lookupEntry(entries, pt, 10, false)
	if !ok || v != 42 {
		t.Fatalf("got %v, %v", v, ok)
	}
}

func TestLookupEntryInterpolatesBetweenBrackets(t *testing.T) {
	pt := geom.Point{X: 1, Y: 1}
	entries := []SectorEntry{
		{WindSpeed: 10, Values: map[geom.Point]float64{pt: 0}, Valid: map[geom.Point]bool{pt: true}},
		{WindSpeed: 20, Values: map[geom.Point]float64{pt: 10}, Valid: map[geom.Point]bool{pt: true}},
	}
	v, ok := lookupEntry(entries, pt, 15, false)
	if !ok || v != 5 {
		t.Fatalf("expected midpoint interpolation to 5, got %v, %v", v, ok)
	}
}

func TestLookupEntryScalesWhenOnlyOneBracket(t *testing.T) {
	pt := geom.Point{X: 1, Y: 1}
	entries := []SectorEntry{
		{WindSpeed: 10, Values: map[geom.Point]float64{pt: 20}, Valid: map[geom.Point]bool{pt: true}},
	}
	v, ok := lookupEntry(entries, pt, 5, false)
	if !ok || v != 10 {
		t.Fatalf("expected scaled value 10 (20 * 5/10), got %v, %v", v, ok)
	}
}

func TestLookupEntryDirectionUsesShortArc(t *testing.T) {
	pt := geom.Point{X: 1, Y: 1}
	entries := []SectorEntry{
		{WindSpeed: 10, Values: map[geom.Point]float64{pt: 350}, Valid: map[geom.Point]bool{pt: true}},
		{WindSpeed: 20, Values: map[geom.Point]float64{pt: 10}, Valid: map[geom.Point]bool{pt: true}},
	}
	v, ok := lookupEntry(entries, pt, 15, true)
	if !ok {
		t.Fatal("expected a value")
	}
	if v != 0 && math.Abs(v-360) > 1e-9 {
		t.Fatalf("expected the short arc midpoint (0/360), got %v", v)
	}
}

func TestOverrideGridAppliesWithinWindow(t *testing.T) {
	pt := geom.Point{X: 0, Y: 0}
	lstMidnight := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	g := &OverrideGrid{
		Kind:         OverrideWindSpeed,
		ApplySectors: true,
		StartTime:    lstMidnight,
		EndTime:      lstMidnight.Add(24 * time.Hour),
		StartSpan:    0,
		EndSpan:      24 * time.Hour,
		Sectors: []Sector{{
			MinDeg: 0, MaxDeg: 360,
			Entries: []SectorEntry{{WindSpeed: 10, Values: map[geom.Point]float64{pt: 25}, Valid: map[geom.Point]bool{pt: true}}},
		}},
	}
	obs := HourlyObservation{WindSpeed: 5}
	g.Apply(pt, lstMidnight.Add(6*time.Hour), lstMidnight, 10, 180, &obs)
	if obs.WindSpeed != 25 {
		t.Fatalf("expected overridden wind speed 25, got %v", obs.WindSpeed)
	}
	if obs.Specified&OverrodeWindSpeed == 0 {
		t.Fatal("expected OverrodeWindSpeed to be set")
	}
}

func TestOverrideGridHistoryShadowSetsBitOnly(t *testing.T) {
	pt := geom.Point{X: 0, Y: 0}
	lstMidnight := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	g := &OverrideGrid{
		Kind:         OverrideWindDirection,
		ApplySectors: true,
		StartTime:    lstMidnight,
		EndTime:      lstMidnight.Add(24 * time.Hour),
		StartSpan:    0,
		EndSpan:      24 * time.Hour,
	}
	queryTime := g.EndTime.Add(48 * time.Hour) // within the 53-day shadow
	obs := HourlyObservation{WindDirection: 1.0}
	g.Apply(pt, queryTime, lstMidnight, 10, 180, &obs)
	if obs.WindDirection != 1.0 {
		t.Fatalf("expected the value untouched in the shadow window, got %v", obs.WindDirection)
	}
	if obs.Specified&OverrodeHistoryWindDirection == 0 {
		t.Fatal("expected OverrodeHistoryWindDirection to be set")
	}
}

func TestOverrideGridDirectionConvertsDegreesToRadians(t *testing.T) {
	pt := geom.Point{X: 0, Y: 0}
	lstMidnight := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	g := &OverrideGrid{
		Kind:         OverrideWindDirection,
		ApplySectors: true,
		StartTime:    lstMidnight,
		EndTime:      lstMidnight.Add(24 * time.Hour),
		StartSpan:    0,
		EndSpan:      24 * time.Hour,
		Sectors: []Sector{{
			MinDeg: 0, MaxDeg: 360,
			Entries: []SectorEntry{{WindSpeed: 10, Values: map[geom.Point]float64{pt: 180}, Valid: map[geom.Point]bool{pt: true}}},
		}},
	}
	obs := HourlyObservation{}
	g.Apply(pt, lstMidnight.Add(time.Hour), lstMidnight, 10, 0, &obs)
	if math.Abs(obs.WindDirection-math.Pi) > 1e-9 {
		t.Fatalf("expected pi radians for 180 degrees, got %v", obs.WindDirection)
	}
}
