package dateutil

import (
	"testing"
	"time"
)

func TestStartOfDayDropsClock(t *testing.T) {
	instant := time.Date(2025, time.June, 20, 17, 45, 12, 999, time.UTC)
	day := StartOfDay(instant)
	if day.Hour() != 0 || day.Minute() != 0 || day.Second() != 0 || day.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", day)
	}
	if day.Year() != 2025 || day.Month() != time.June || day.Day() != 20 {
		t.Fatalf("expected same calendar day, got %v", day)
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2025, time.January, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 2, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
}

func TestDaysBetweenNegativeWhenReversed(t *testing.T) {
	from := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.March, 3, 20, 0, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != -7 {
		t.Fatalf("expected -7 days, got %d", got)
	}
}

func TestDaysBetweenAcrossYears(t *testing.T) {
	from := time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
}

func TestWeekdayIndexIsSundayBased(t *testing.T) {
	// 2025-01-05 is a Sunday.
	sunday := time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)
	if got := WeekdayIndex(sunday); got != 0 {
		t.Fatalf("expected index 0 for Sunday, got %d", got)
	}
	saturday := time.Date(2025, time.January, 4, 12, 0, 0, 0, time.UTC)
	if got := WeekdayIndex(saturday); got != 6 {
		t.Fatalf("expected index 6 for Saturday, got %d", got)
	}
}

func TestParseClockAcceptsPaddedAndUnpadded(t *testing.T) {
	for _, raw := range []string{"08:00", "8:00"} {
		clock, err := ParseClock(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if clock.Hour != 8 || clock.Minute != 0 {
			t.Fatalf("unexpected clock for %q: %+v", raw, clock)
		}
		if clock.String() != "08:00" {
			t.Fatalf("expected canonical form 08:00, got %s", clock)
		}
	}
}

func TestParseClockRejectsOutOfRange(t *testing.T) {
	for _, raw := range []string{"24:00", "12:60", "noon", "12", "-1:30"} {
		if _, err := ParseClock(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestClockOnDay(t *testing.T) {
	clock := Clock{Hour: 9, Minute: 30}
	day := time.Date(2025, time.May, 4, 22, 15, 0, 0, time.UTC)
	placed := clock.OnDay(day)
	expected := time.Date(2025, time.May, 4, 9, 30, 0, 0, time.UTC)
	if !placed.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, placed)
	}
}
