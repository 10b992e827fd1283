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
)

func twoDayHourlyStream(t *testing.T) *Stream {
	t.Helper()
	s := NewStream(time.UTC)
	day0 := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	day1 := NewDay(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))
	for h := 0; h < 24; h++ {
		day0.Hourly[h] = HourlyObservation{Temperature: float64(h), WindSpeed: 5, RH: 0.4}
		day1.Hourly[h] = HourlyObservation{Temperature: float64(h) + 24, WindSpeed: 5, RH: 0.4}
	}
	day0.mode, day1.mode = dayModeHourly, dayModeHourly
	s.Days = []*Day{day0, day1}
	s.Recalculate(0)
	return s
}

func TestStreamGetInstantaneousInterpolatesAcrossHourBoundary(t *testing.T) {
	s := twoDayHourlyStream(t)
	t0 := time.Date(2024, 7, 1, 10, 30, 0, 0, time.UTC)
	wx, _, _, err := s.GetInstantaneous(t0, InterpolateTemporal)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(wx.Temperature-10.5) > 1e-9 {
		t.Fatalf("expected midpoint temperature 10.5, got %v", wx.Temperature)
	}
}

func TestStreamGetInstantaneousFloorsWithoutTemporalInterpolation(t *testing.T) {
	s := twoDayHourlyStream(t)
	t0 := time.Date(2024, 7, 1, 10, 45, 0, 0, time.UTC)
	wx, _, _, err := s.GetInstantaneous(t0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if wx.Temperature != 10 {
		t.Fatalf("expected the floor hour's raw value 10, got %v", wx.Temperature)
	}
}

func TestStreamGetInstantaneousInterpolatesAcrossDayBoundary(t *testing.T) {
	s := twoDayHourlyStream(t)
	t0 := time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC)
	wx, _, _, err := s.GetInstantaneous(t0, InterpolateTemporal)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(wx.Temperature-23.5) > 1e-9 {
		t.Fatalf("expected midpoint temperature 23.5 spanning the day boundary, got %v", wx.Temperature)
	}
}

func TestStreamGetInstantaneousZeroesPrecipAtStreamEnd(t *testing.T) {
	s := NewStream(time.UTC)
	day := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	day.IsFirst, day.IsLast = true, true
	day.FirstHour, day.LastHour = 0, 23
	for h := 0; h < 24; h++ {
		day.Hourly[h] = HourlyObservation{Temperature: 10, Precip: 2}
	}
	day.mode = dayModeHourly
	s.Days = []*Day{day}
	s.Recalculate(0)

	t0 := time.Date(2024, 7, 1, 23, 30, 0, 0, time.UTC)
	wx, _, _, err := s.GetInstantaneous(t0, InterpolateTemporal)
	if err != nil {
		t.Fatal(err)
	}
	if wx.Precip != 0 {
		t.Fatalf("expected precipitation zeroed past the stream's last hour, got %v", wx.Precip)
	}
}

func TestStreamGetInstantaneousOutOfRangeErrors(t *testing.T) {
	s := twoDayHourlyStream(t)
	_, _, _, err := s.GetInstantaneous(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 0)
	if err == nil {
		t.Fatal("expected an error for a time before the stream's start")
	}
}

func TestStreamGetEventTimeCrossesDayBoundary(t *testing.T) {
	s := twoDayHourlyStream(t)
	from := time.Date(2024, 7, 1, 23, 0, 0, 0, time.UTC)
	next, ok := s.GetEventTime(from, Forward)
	if !ok {
		t.Fatal("expected an event at the stream's internal day boundary")
	}
	if !next.Equal(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight day 2, got %v", next)
	}
}

func TestStreamGetEventTimeBackwardAtStreamStartReportsStart(t *testing.T) {
	s := twoDayHourlyStream(t)
	start := s.StartTime()
	next, ok := s.GetEventTime(start, Backward)
	if !ok {
		t.Fatal("expected the stream start boundary to be reported directly")
	}
	if !next.Equal(start) {
		t.Fatalf("expected the stream's own start time, got %v", next)
	}
}

func TestSetValidTimeRangeTrimsAndAccumulatesPrecip(t *testing.T) {
	s := NewStream(time.UTC)
	var days []*Day
	for i := 0; i < 3; i++ {
		d := NewDay(time.Date(2024, 7, 1+i, 0, 0, 0, 0, time.UTC))
		d.IsFirst, d.IsLast = i == 0, i == 2
		d.FirstHour, d.LastHour = 0, 23
		for h := 0; h < 24; h++ {
			d.Hourly[h] = HourlyObservation{Temperature: 10, Precip: 1}
		}
		d.mode = dayModeHourly
		d.MakeDaily()
		days = append(days, d)
	}
	s.Days = days
	s.Recalculate(0)

	start := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	s.SetValidTimeRange(start, 24*time.Hour, true)

	if len(s.Days) != 1 {
		t.Fatalf("expected exactly the middle day to remain, got %d days", len(s.Days))
	}
	if s.Starting.InitialRain != 24 {
		t.Fatalf("expected 24mm trimmed from the first day accumulated into InitialRain, got %v", s.Starting.InitialRain)
	}
}

func TestSetValidTimeRangeIsIdempotent(t *testing.T) {
	s := NewStream(time.UTC)
	var days []*Day
	for i := 0; i < 3; i++ {
		d := NewDay(time.Date(2024, 7, 1+i, 0, 0, 0, 0, time.UTC))
		d.IsFirst, d.IsLast = i == 0, i == 2
		d.FirstHour, d.LastHour = 0, 23
		for h := 0; h < 24; h++ {
			d.Hourly[h] = HourlyObservation{Temperature: 10, Precip: 1}
		}
		d.mode = dayModeHourly
		d.MakeDaily()
		days = append(days, d)
	}
	s.Days = days
	s.Recalculate(0)

	start := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	s.SetValidTimeRange(start, 24*time.Hour, true)
	firstPassRain := s.Starting.InitialRain
	firstPassDays := len(s.Days)

	s.SetValidTimeRange(start, 24*time.Hour, true)
	if len(s.Days) != firstPassDays || s.Starting.InitialRain != firstPassRain {
		t.Fatal("expected a repeated call with the same range to be a no-op")
	}
}

func TestGridHandleDetachDecrementsGridCount(t *testing.T) {
	s := NewStream(time.UTC)
	h1 := s.AttachToGrid()
	h2 := s.AttachToGrid()
	if s.GridCount() != 2 {
		t.Fatalf("expected grid count 2, got %d", s.GridCount())
	}
	h1.Detach()
	if s.GridCount() != 1 {
		t.Fatalf("expected grid count 1 after one detach, got %d", s.GridCount())
	}
	h1.Detach() // repeated detach is a no-op
	if s.GridCount() != 1 {
		t.Fatal("expected a repeated Detach to be a no-op")
	}
	h2.Detach()
	if s.GridCount() != 0 {
		t.Fatalf("expected grid count 0, got %d", s.GridCount())
	}
}
