package diurnal

import (
	"math"
	"testing"
	"time"
)

func dayTimes(base time.Time) Times {
	return Times{
		SunsetYesterday: base.Add(-9 * time.Hour),  // yesterday ~19:00
		MinToday:        base.Add(5 * time.Hour),   // ~05:00
		MaxToday:        base.Add(16 * time.Hour),  // ~16:00
		SunsetToday:     base.Add(19 * time.Hour),  // ~19:00
	}
}

func TestValueAtMinEqualsVmin(t *testing.T) {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tm := dayTimes(base)
	v := Value(tm.MinToday, tm, DefaultTempCurve, 10, 28, 15)
	if math.Abs(v-10) > 1e-6 {
		t.Errorf("expected value at min time to equal Vmin=10, got %v", v)
	}
}

func TestValueAtMaxEqualsVmax(t *testing.T) {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tm := dayTimes(base)
	v := Value(tm.MaxToday, tm, DefaultTempCurve, 10, 28, 15)
	if math.Abs(v-28) > 1e-6 {
		t.Errorf("expected value at max time to equal Vmax=28, got %v", v)
	}
}

// TestScenario1RisingCurve exercises spec.md §8 scenario 1: a noon query
// on a rising curve should land strictly between Vmin and Vmax.
func TestScenario1RisingCurve(t *testing.T) {
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	tm := dayTimes(base)
	noon := base.Add(12 * time.Hour)
	v := Value(noon, tm, DefaultTempCurve, 10, 28, 15)
	if v <= 22 || v >= 28 {
		t.Errorf("expected noon temperature between 22 and 28, got %v", v)
	}
}

func TestRelativeHumidityClamped(t *testing.T) {
	rh := RelativeHumidity(40, 28, 0.3)
	if rh < 0 || rh > 1 {
		t.Errorf("RH out of [0,1]: %v", rh)
	}
}

func TestDewPointBelowTemp(t *testing.T) {
	td := DewPoint(25, 0.5)
	if td >= 25 {
		t.Errorf("dew point should be below air temperature for RH<1, got %v", td)
	}
}

func TestSyntheticYesterdayPersistsToday(t *testing.T) {
	if SyntheticYesterday(12.5) != 12.5 {
		t.Error("synthetic yesterday should equal today's min")
	}
}
