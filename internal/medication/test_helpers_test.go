package medication

import (
	"fmt"
	"testing"
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
)

func mustClock(t *testing.T, raw string) dateutil.Clock {
	t.Helper()
	clock, err := dateutil.ParseClock(raw)
	if err != nil {
		t.Fatalf("unexpected clock error: %v", err)
	}
	return clock
}

func mustEntry(t *testing.T, raw string, days WeekdaySet, duration *Duration, sortOrder int) ScheduleEntry {
	t.Helper()
	entry, err := NewScheduleEntry(mustClock(t, raw), "", days, duration, sortOrder)
	if err != nil {
		t.Fatalf("unexpected entry error: %v", err)
	}
	return entry
}

func mustDuration(t *testing.T, value int, unit string) *Duration {
	t.Helper()
	duration, err := NewDuration(value, unit)
	if err != nil {
		t.Fatalf("unexpected duration error: %v", err)
	}
	return &duration
}

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func testSchedule(startDate time.Time, entries ...ScheduleEntry) Schedule {
	return Schedule{
		ID:        "med-1",
		AccountID: "acct-1",
		Name:      "Test medication",
		Type:      ScheduleTypeScheduled,
		StartDate: startDate,
		Entries:   entries,
	}
}

type sequentialIDs struct {
	next int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.next++
	return fmt.Sprintf("generated-%d", s.next), nil
}
