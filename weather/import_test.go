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
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

const sampleDailyCSV = `date,min_temp,max_temp,rh,wd,min_ws,max_ws,precip
2024-07-01,10,25,40,180,2,15,5
2024-07-02,12,27,35,190,3,18,0
`

const sampleHourlyCSV = `date,hour,temp,rh,precip,ws,wd
2024-07-01,0,10,50,0,2,180
2024-07-01,1,11,49,0,3,182
2024-07-01,2,12,48,0,3,184
`

func TestImportDetectsDailyFormat(t *testing.T) {
	s := NewStream(time.UTC)
	v, err := s.Import(strings.NewReader(sampleDailyCSV), ImportPurge, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if v.HasWarnings() {
		t.Fatalf("expected no warnings, got %v", v.Warnings())
	}
	if len(s.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(s.Days))
	}
	if s.Days[0].HourlySpecified() {
		t.Fatal("expected a daily-format import to produce daily-specified days")
	}
}

func TestImportDetectsHourlyFormat(t *testing.T) {
	s := NewStream(time.UTC)
	_, err := s.Import(strings.NewReader(sampleHourlyCSV), ImportPurge, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(s.Days))
	}
	if !s.Days[0].HourlySpecified() {
		t.Fatal("expected an hourly-format import to produce an hourly-specified day")
	}
}

func TestImportClampsOutOfRangeFieldsAndWarns(t *testing.T) {
	csv := "date,min_temp,max_temp,rh,wd,min_ws,max_ws,precip\n2024-07-01,10,25,150,180,2,15,5\n"
	s := NewStream(time.UTC)
	v, err := s.Import(strings.NewReader(csv), ImportPurge, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !v.HasWarnings() {
		t.Fatal("expected a warning for rh=150 out of [0,100]")
	}
	if s.Days[0].Summary.MeanRH != 1.0 {
		t.Fatalf("expected rh clamped to 100%% (fraction 1.0), got %v", s.Days[0].Summary.MeanRH)
	}
}

func TestImportRejectsMissingRequiredColumns(t *testing.T) {
	s := NewStream(time.UTC)
	_, err := s.Import(strings.NewReader("foo,bar\n1,2\n"), ImportPurge, time.UTC)
	if !errors.Is(err, ErrKind(BadFileType)) {
		t.Fatalf("expected BadFileType, got %v", err)
	}
}

func TestImportOverwriteRequiresFlagOnOverlap(t *testing.T) {
	s := NewStream(time.UTC)
	if _, err := s.Import(strings.NewReader(sampleDailyCSV), ImportPurge, time.UTC); err != nil {
		t.Fatal(err)
	}
	overlap := "date,min_temp,max_temp,rh,wd,min_ws,max_ws,precip\n2024-07-02,1,2,40,180,2,15,0\n"
	_, err := s.Import(strings.NewReader(overlap), ImportAppend, time.UTC)
	if !errors.Is(err, ErrKind(AttemptOverwrite)) {
		t.Fatalf("expected AttemptOverwrite, got %v", err)
	}
	if _, err := s.Import(strings.NewReader(overlap), ImportOverwrite, time.UTC); err != nil {
		t.Fatalf("expected ImportOverwrite to succeed, got %v", err)
	}
}

func TestImportAppendRejectsDataPrecedingStreamStart(t *testing.T) {
	s := NewStream(time.UTC)
	if _, err := s.Import(strings.NewReader(sampleDailyCSV), ImportPurge, time.UTC); err != nil {
		t.Fatal(err)
	}
	earlier := "date,min_temp,max_temp,rh,wd,min_ws,max_ws,precip\n2024-06-30,1,2,40,180,2,15,0\n"
	_, err := s.Import(strings.NewReader(earlier), ImportAppend, time.UTC)
	if !errors.Is(err, ErrKind(AttemptPrepend)) {
		t.Fatalf("expected AttemptPrepend, got %v", err)
	}
}

func TestImportAppendRequiresContiguousDates(t *testing.T) {
	s := NewStream(time.UTC)
	if _, err := s.Import(strings.NewReader(sampleDailyCSV), ImportPurge, time.UTC); err != nil {
		t.Fatal(err)
	}
	gap := "date,min_temp,max_temp,rh,wd,min_ws,max_ws,precip\n2024-07-10,1,2,40,180,2,15,0\n"
	_, err := s.Import(strings.NewReader(gap), ImportAppend, time.UTC)
	if !errors.Is(err, ErrKind(InvalidData)) {
		t.Fatalf("expected InvalidData for a non-contiguous append, got %v", err)
	}
}

// TestImportExportRoundTrips covers spec.md §8 invariant 7: re-importing an
// exported hourly stream reproduces the same hourly observations.
func TestImportExportRoundTrips(t *testing.T) {
	s := NewStream(time.UTC)
	if _, err := s.Import(strings.NewReader(sampleHourlyCSV), ImportPurge, time.UTC); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		t.Fatal(err)
	}

	s2 := NewStream(time.UTC)
	if _, err := s2.Import(&buf, ImportPurge, time.UTC); err != nil {
		t.Fatal(err)
	}

	if len(s.Days) != len(s2.Days) {
		t.Fatalf("expected %d days after round-trip, got %d", len(s.Days), len(s2.Days))
	}
	for h := 0; h < 3; h++ {
		o1, o2 := s.Days[0].Hourly[h], s2.Days[0].Hourly[h]
		if math.Abs(o1.Temperature-o2.Temperature) > 1e-6 {
			t.Fatalf("hour %d: temperature mismatch after round-trip: %v vs %v", h, o1.Temperature, o2.Temperature)
		}
		if math.Abs(o1.WindSpeed-o2.WindSpeed) > 1e-6 {
			t.Fatalf("hour %d: wind speed mismatch after round-trip: %v vs %v", h, o1.WindSpeed, o2.WindSpeed)
		}
	}
}
