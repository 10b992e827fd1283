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

	"github.com/ctessum/fwxgrid/diurnal"
)

func TestSetDailyThenSetHourlyFails(t *testing.T) {
	d := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err := d.SetDaily(DailySummary{MinTemp: 10, MaxTemp: 20}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetHourly(5, HourlyObservation{}); err == nil {
		t.Fatal("expected error setting hourly on a daily-specified day")
	}
}

func TestSetHourlyThenSetDailyFails(t *testing.T) {
	d := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err := d.SetHourly(5, HourlyObservation{Temperature: 15}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetDaily(DailySummary{}); err == nil {
		t.Fatal("expected error setting daily on an hourly-specified day")
	}
}

func TestSetDailySwapsInvertedMinMax(t *testing.T) {
	d := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	if err := d.SetDaily(DailySummary{MinTemp: 30, MaxTemp: 10, MinWS: 20, MaxWS: 5}); err != nil {
		t.Fatal(err)
	}
	if d.Summary.MinTemp != 10 || d.Summary.MaxTemp != 30 {
		t.Fatalf("expected swap, got min=%v max=%v", d.Summary.MinTemp, d.Summary.MaxTemp)
	}
	if d.Summary.MinWS != 5 || d.Summary.MaxWS != 20 {
		t.Fatalf("expected wind swap, got min=%v max=%v", d.Summary.MinWS, d.Summary.MaxWS)
	}
}

func TestIsHourlySpecifiedOutOfRange(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := NewDay(start)
	d.IsFirst = true
	d.FirstHour = 5
	d.SetHourly(5, HourlyObservation{})

	if got := d.IsHourlySpecified(start.Add(2 * time.Hour)); got != HourlyOutOfRange {
		t.Fatalf("expected HourlyOutOfRange before first_hour, got %v", got)
	}
	if got := d.IsHourlySpecified(start.Add(5 * time.Hour)); got != HourlyYes {
		t.Fatalf("expected HourlyYes at first_hour, got %v", got)
	}
}

func TestMakeHourlyDoesNotExceedDailyMax(t *testing.T) {
	d := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	summary := DailySummary{MinTemp: 10, MaxTemp: 28, MinWS: 2, MaxWS: 15, MeanRH: 0.3, Precip: 5}
	if err := d.SetDaily(summary); err != nil {
		t.Fatal(err)
	}
	d.IsFirst, d.IsLast = true, true
	d.FirstHour, d.LastHour = 0, 23

	d.MakeHourly(nil, nil, diurnal.DefaultTempCurve, diurnal.DefaultWindCurve, 6*time.Hour, 12*time.Hour, 19*time.Hour)

	if !almostEqualDay(d.Hourly[0].Temperature, d.Summary.MinTemp, 0.5) {
		// sanity: early-morning hour should be closer to min than max
		t.Errorf("expected hour 0 within 0.5 of the daily min %v, got %v", d.Summary.MinTemp, d.Hourly[0].Temperature)
	}

	maxFound := d.Hourly[0].Temperature
	minFound := d.Hourly[0].Temperature
	for h := 1; h < 24; h++ {
		v := d.Hourly[h].Temperature
		if v > maxFound {
			maxFound = v
		}
		if v < minFound {
			minFound = v
		}
	}
	if maxFound > summary.MaxTemp+1e-6 {
		t.Fatalf("reconstructed hourly max %v exceeds daily max %v", maxFound, summary.MaxTemp)
	}
}

func almostEqualDay(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestGetEventTimeForwardWithinDay(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := NewDay(start)
	d.IsFirst, d.IsLast = true, true
	d.FirstHour, d.LastHour = 0, 23

	next, ok := d.GetEventTime(start.Add(5*time.Hour+30*time.Minute), Forward)
	if !ok {
		t.Fatal("expected an in-day event")
	}
	if !next.Equal(start.Add(6 * time.Hour)) {
		t.Fatalf("expected hour 6, got %v", next)
	}
}

func TestGetEventTimeForwardAtLastHourReturnsDayBoundary(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := NewDay(start)
	d.IsFirst, d.IsLast = true, true
	d.FirstHour, d.LastHour = 0, 23

	// The next hour boundary after the last hour is midnight the following
	// day, which coincides exactly with the start of the adjacent Day, so
	// no lookup into that day is required to report it.
	next, ok := d.GetEventTime(start.Add(23*time.Hour), Forward)
	if !ok {
		t.Fatal("expected the day-end boundary to be reported directly")
	}
	if !next.Equal(start.Add(24 * time.Hour)) {
		t.Fatalf("expected midnight the next day, got %v", next)
	}
}

func TestGetEventTimeForwardBeforeFirstHourNeedsPreviousDay(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := NewDay(start)
	d.IsFirst = true
	d.FirstHour = 5
	d.IsLast, d.LastHour = true, 23

	_, ok := d.GetEventTime(start.Add(2*time.Hour), Forward)
	if ok {
		t.Fatal("expected the search below first_hour to be out of this day's range")
	}
}

func TestGetEventTimeBackwardAtDayStart(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d := NewDay(start)
	d.IsFirst, d.IsLast = true, true
	d.FirstHour, d.LastHour = 0, 23

	_, ok := d.GetEventTime(start, Backward)
	if ok {
		t.Fatal("expected the search to need the previous day at day start")
	}
}

func TestCalculateFWIOrdersStagesCorrectly(t *testing.T) {
	d := NewDay(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	d.IsFirst, d.IsLast = true, true
	d.FirstHour, d.LastHour = 0, 23
	if err := d.SetDaily(DailySummary{MinTemp: 15, MaxTemp: 25, MinWS: 5, MaxWS: 10, MeanRH: 0.4, Precip: 0}); err != nil {
		t.Fatal(err)
	}
	d.MakeHourly(nil, nil, diurnal.DefaultTempCurve, diurnal.DefaultWindCurve, 6*time.Hour, 12*time.Hour, 19*time.Hour)

	prev := DailyFWICodes{
		FFMC: FWICode{Specified: Unset, Calculated: 85},
		DMC:  FWICode{Specified: Unset, Calculated: 6},
		DC:   FWICode{Specified: Unset, Calculated: 15},
		BUI:  FWICode{Specified: Unset, Calculated: 10},
	}
	d.CalculateFWI(prev, FFMCVanWagner, false, 0.8, 7)

	if d.Codes.BUI.Calculated < 0 {
		t.Fatalf("BUI should be non-negative, got %v", d.Codes.BUI.Calculated)
	}
	if d.Codes.FWI.Calculated < 0 {
		t.Fatalf("FWI should be non-negative, got %v", d.Codes.FWI.Calculated)
	}
	for h := 0; h <= 23; h++ {
		if d.HourlyCodes[h].FFMC.Calculated < 0 || d.HourlyCodes[h].FFMC.Calculated > 101 {
			t.Fatalf("hour %d FFMC out of bounds: %v", h, d.HourlyCodes[h].FFMC.Calculated)
		}
	}
}
