package medication

import (
	"errors"
	"testing"
	"time"

	"github.com/kindredhq/hearth/internal/wire"
)

func TestNewScheduleEntryRejectsEmptyWeekdaySet(t *testing.T) {
	_, err := NewScheduleEntry(mustClock(t, "08:00"), "", NewWeekdaySet(nil), nil, 0)
	if !errors.Is(err, ErrEmptyWeekdaySet) {
		t.Fatalf("expected ErrEmptyWeekdaySet, got %v", err)
	}
}

func TestNewDurationRejectsNonPositive(t *testing.T) {
	if _, err := NewDuration(0, "days"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for zero, got %v", err)
	}
	if _, err := NewDuration(-3, "weeks"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for negative, got %v", err)
	}
	if _, err := NewDuration(2, "fortnights"); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration for unknown unit, got %v", err)
	}
}

func TestNewWeekdaySetIgnoresMalformedValues(t *testing.T) {
	set := NewWeekdaySet([]int{-1, 0, 3, 7, 42})
	if !set.Contains(0) || !set.Contains(3) {
		t.Fatalf("expected valid days kept: %v", set.List())
	}
	if len(set.List()) != 2 {
		t.Fatalf("expected malformed days dropped, got %v", set.List())
	}
}

func TestFromPayloadStructuredEntriesSortedByOrder(t *testing.T) {
	seven := 7
	payload := wire.MedicationPayload{
		ID:           "med-1",
		AccountID:    "acct-1",
		Name:         "Amoxicillin",
		ScheduleType: "scheduled",
		StartDate:    "2025-01-01",
		ScheduleEntries: []wire.ScheduleEntryPayload{
			{Time: "20:00", DaysOfWeek: []int{1, 3, 5}, SortOrder: 1, DurationUnit: "days"},
			{Time: "08:00", DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}, SortOrder: 0, DurationValue: &seven, DurationUnit: "days"},
		},
	}
	schedule, err := FromPayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.Entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(schedule.Entries))
	}
	if schedule.Entries[0].SortOrder != 0 || schedule.Entries[1].SortOrder != 1 {
		t.Fatalf("entries not sorted by order: %+v", schedule.Entries)
	}
	if schedule.Entries[0].Duration == nil || schedule.Entries[0].Duration.Days() != 7 {
		t.Fatalf("first entry duration lost: %+v", schedule.Entries[0].Duration)
	}
	if schedule.Entries[1].Duration != nil {
		t.Fatalf("expected open-ended second entry")
	}
}

func TestFromPayloadLegacyShapeBecomesSyntheticEntry(t *testing.T) {
	payload := wire.MedicationPayload{
		ID:           "med-legacy",
		AccountID:    "acct-1",
		Name:         "Vitamin D",
		ScheduleType: "scheduled",
		StartDate:    "2024-11-01",
		Times:        []string{"09:00"},
		DaysOfWeek:   []int{1, 2, 3, 4, 5},
	}
	schedule, err := FromPayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.Entries) != 1 {
		t.Fatalf("expected one synthetic entry, got %d", len(schedule.Entries))
	}
	entry := schedule.Entries[0]
	if entry.Duration != nil {
		t.Fatalf("expected synthetic entry to be open ended")
	}
	if entry.Time.String() != "09:00" {
		t.Fatalf("unexpected time: %s", entry.Time)
	}
	if entry.Days.Contains(0) || !entry.Days.Contains(1) {
		t.Fatalf("unexpected weekday set: %v", entry.Days.List())
	}
}

func TestFromPayloadLegacyShapeWithoutDaysDefaultsToAll(t *testing.T) {
	payload := wire.MedicationPayload{
		ID:           "med-legacy-2",
		AccountID:    "acct-1",
		Name:         "Iron",
		ScheduleType: "scheduled",
		StartDate:    "2024-11-01",
		Times:        []string{"07:30"},
	}
	schedule, err := FromPayload(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.Entries) != 1 || schedule.Entries[0].Days != AllWeekdays() {
		t.Fatalf("expected daily synthetic entry, got %+v", schedule.Entries)
	}
}

func TestFromPayloadRejectsMissingStartDate(t *testing.T) {
	payload := wire.MedicationPayload{ID: "med-x", ScheduleType: "scheduled"}
	if _, err := FromPayload(payload); !errors.Is(err, ErrMissingStartDate) {
		t.Fatalf("expected ErrMissingStartDate, got %v", err)
	}
}

func TestSchedulePayloadRoundTrip(t *testing.T) {
	start := day(2025, time.January, 1)
	end := day(2025, time.March, 1)
	schedule := testSchedule(start,
		mustEntry(t, "08:00", AllWeekdays(), mustDuration(t, 2, "weeks"), 0),
		mustEntry(t, "20:00", NewWeekdaySet([]int{1, 3, 5}), nil, 1),
	)
	schedule.EndDate = &end
	schedule.IsPaused = true

	encoded, err := wire.Encode(schedule.ToPayload())
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	decoded, err := wire.DecodeMedication(encoded)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	restored, err := FromPayload(decoded)
	if err != nil {
		t.Fatalf("unexpected rebuild error: %v", err)
	}

	if !restored.StartDate.Equal(schedule.StartDate) {
		t.Fatalf("start date changed: %v", restored.StartDate)
	}
	if restored.EndDate == nil || !restored.EndDate.Equal(end) {
		t.Fatalf("end date changed: %v", restored.EndDate)
	}
	if !restored.IsPaused {
		t.Fatalf("pause flag lost")
	}
	if len(restored.Entries) != 2 {
		t.Fatalf("entries lost: %+v", restored.Entries)
	}
	if restored.Entries[0].Duration == nil || restored.Entries[0].Duration.Unit != DurationUnitWeeks {
		t.Fatalf("duration unit changed: %+v", restored.Entries[0].Duration)
	}
}

func TestLogStatusTransition(t *testing.T) {
	at := day(2025, time.April, 1)
	log := Log{ID: "log-1", MedicationID: "med-1", ScheduledAt: at, Status: LogStatusScheduled}

	takenAt := at.Add(8 * time.Hour)
	taken := log.WithStatus(LogStatusTaken, takenAt)
	if taken.Status != LogStatusTaken || taken.TakenAt == nil || !taken.TakenAt.Equal(takenAt) {
		t.Fatalf("unexpected taken transition: %+v", taken)
	}

	skipped := taken.WithStatus(LogStatusSkipped, takenAt)
	if skipped.Status != LogStatusSkipped || skipped.TakenAt != nil {
		t.Fatalf("expected taken_at cleared on skip: %+v", skipped)
	}
}

func TestParseLogStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseLogStatus("snoozed"); !errors.Is(err, ErrInvalidLogStatus) {
		t.Fatalf("expected ErrInvalidLogStatus, got %v", err)
	}
}
