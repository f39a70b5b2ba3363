package medication

import (
	"testing"
	"time"
)

func TestGenerateLogsCreatesScheduledLogPerOccurrence(t *testing.T) {
	start := day(2025, time.January, 1)
	schedule := testSchedule(start, mustEntry(t, "08:00", AllWeekdays(), nil, 0))

	logs, err := GenerateLogs([]Schedule{schedule}, nil, day(2025, time.January, 2), &sequentialIDs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected one generated log, got %d", len(logs))
	}
	log := logs[0]
	if log.Status != LogStatusScheduled {
		t.Fatalf("expected scheduled status, got %s", log.Status)
	}
	if log.MedicationID != schedule.ID || log.AccountID != schedule.AccountID {
		t.Fatalf("unexpected ownership: %+v", log)
	}
	expectedAt := time.Date(2025, time.January, 2, 8, 0, 0, 0, time.UTC)
	if !log.ScheduledAt.Equal(expectedAt) {
		t.Fatalf("expected %v, got %v", expectedAt, log.ScheduledAt)
	}
}

func TestGenerateLogsIsIdempotentAgainstExisting(t *testing.T) {
	start := day(2025, time.January, 1)
	schedule := testSchedule(start, mustEntry(t, "08:00", AllWeekdays(), nil, 0))
	target := day(2025, time.January, 2)

	first, err := GenerateLogs([]Schedule{schedule}, nil, target, &sequentialIDs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := GenerateLogs([]Schedule{schedule}, first, target, &sequentialIDs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no duplicate logs, got %d", len(second))
	}
}

func TestGenerateLogsSkipsInactiveDaysAndPausedSchedules(t *testing.T) {
	start := day(2025, time.January, 1)
	weekdayOnly := testSchedule(start, mustEntry(t, "08:00", NewWeekdaySet([]int{1, 2, 3, 4, 5}), nil, 0))

	// 2025-01-05 is a Sunday.
	logs, err := GenerateLogs([]Schedule{weekdayOnly}, nil, day(2025, time.January, 5), &sequentialIDs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs on inactive weekday, got %d", len(logs))
	}

	paused := weekdayOnly
	paused.IsPaused = true
	logs, err = GenerateLogs([]Schedule{paused}, nil, day(2025, time.January, 6), &sequentialIDs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no logs for paused schedule, got %d", len(logs))
	}
}

func TestOccurrencesOnPlacesEntryTimeOnDay(t *testing.T) {
	start := day(2025, time.January, 1)
	morning := testSchedule(start, mustEntry(t, "08:00", AllWeekdays(), nil, 0))
	evening := Schedule{
		ID:        "med-2",
		AccountID: "acct-1",
		Name:      "Evening medication",
		Type:      ScheduleTypeScheduled,
		StartDate: start,
		Entries:   []ScheduleEntry{mustEntry(t, "21:30", AllWeekdays(), nil, 0)},
	}

	occurrences := OccurrencesOn([]Schedule{morning, evening}, day(2025, time.January, 3))
	if len(occurrences) != 2 {
		t.Fatalf("expected two occurrences, got %d", len(occurrences))
	}
	if occurrences[1].ScheduledAt.Hour() != 21 || occurrences[1].ScheduledAt.Minute() != 30 {
		t.Fatalf("unexpected evening occurrence: %v", occurrences[1].ScheduledAt)
	}
}
