package countdown

import (
	"testing"
	"time"
)

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func birthday(id string, date time.Time) Event {
	return Event{
		ID:          id,
		AccountID:   "acct-1",
		Title:       "Birthday",
		Type:        EventTypeBirthday,
		Date:        date,
		IsRecurring: true,
	}
}

func TestNextOccurrenceAdvancesWhenThisYearHasPassed(t *testing.T) {
	event := birthday("cd-1", day(1990, time.June, 15))

	// Reference 2025-06-20: this year's date has passed.
	next := NextOccurrence(event, day(2025, time.June, 20))
	if !next.Equal(day(2026, time.June, 15)) {
		t.Fatalf("expected 2026-06-15, got %v", next)
	}

	// Reference before this year's date keeps the current year.
	next = NextOccurrence(event, day(2025, time.June, 1))
	if !next.Equal(day(2025, time.June, 15)) {
		t.Fatalf("expected 2025-06-15, got %v", next)
	}

	// The day itself counts as not passed.
	next = NextOccurrence(event, day(2025, time.June, 15))
	if !next.Equal(day(2025, time.June, 15)) {
		t.Fatalf("expected same-day occurrence, got %v", next)
	}
}

func TestDaysUntilBirthdayScenario(t *testing.T) {
	event := birthday("cd-1", day(1990, time.June, 15))
	if got := DaysUntil(event, day(2025, time.June, 1)); got != 14 {
		t.Fatalf("expected 14 days, got %d", got)
	}
	if got := DaysUntil(event, day(2025, time.June, 15)); got != 0 {
		t.Fatalf("expected 0 days on the day, got %d", got)
	}
}

func TestDaysUntilNeverNegative(t *testing.T) {
	oneShot := Event{ID: "cd-2", Title: "Moved in", Type: EventTypeCountdown, Date: day(2024, time.March, 1)}
	if got := DaysUntil(oneShot, day(2025, time.January, 1)); got != 0 {
		t.Fatalf("expected floor at 0 for past one-shot, got %d", got)
	}
}

func TestHasPassedOnlyForNonRecurring(t *testing.T) {
	oneShot := Event{ID: "cd-2", Title: "Closing date", Type: EventTypeCountdown, Date: day(2024, time.March, 1)}
	if !HasPassed(oneShot, day(2025, time.January, 1)) {
		t.Fatalf("expected past one-shot to have passed")
	}
	if HasPassed(oneShot, day(2024, time.March, 1)) {
		t.Fatalf("expected same-day event not passed")
	}
	if HasPassed(birthday("cd-1", day(1990, time.June, 15)), day(2025, time.January, 1)) {
		t.Fatalf("recurring events never pass")
	}
}

func TestOccurrencesInRangeAnnualEvent(t *testing.T) {
	event := birthday("cd-1", day(1990, time.June, 15))

	occurrences := OccurrencesInRange([]Event{event}, day(2025, time.June, 1), day(2025, time.June, 30))
	if len(occurrences) != 1 {
		t.Fatalf("expected one occurrence, got %d", len(occurrences))
	}
	if !occurrences[0].Date.Equal(day(2025, time.June, 15)) {
		t.Fatalf("unexpected occurrence date: %v", occurrences[0].Date)
	}

	// A range spanning two years catches both projections.
	occurrences = OccurrencesInRange([]Event{event}, day(2025, time.January, 1), day(2026, time.December, 31))
	if len(occurrences) != 2 {
		t.Fatalf("expected two occurrences across years, got %d", len(occurrences))
	}
}

func TestOccurrencesInRangeOutsideRangeExcluded(t *testing.T) {
	event := birthday("cd-1", day(1990, time.June, 15))
	occurrences := OccurrencesInRange([]Event{event}, day(2025, time.July, 1), day(2025, time.July, 31))
	if len(occurrences) != 0 {
		t.Fatalf("expected no occurrences, got %d", len(occurrences))
	}
}

func TestGroupedSiblingsProjectIndependentDays(t *testing.T) {
	groupID := "group-1"
	first := Event{ID: "cd-a", Title: "State fair", Type: EventTypeCountdown, Date: day(2025, time.August, 1), GroupID: groupID}
	second := Event{ID: "cd-b", Title: "State fair", Type: EventTypeCountdown, Date: day(2025, time.August, 2), GroupID: groupID}
	third := Event{ID: "cd-c", Title: "State fair", Type: EventTypeCountdown, Date: day(2025, time.August, 3), GroupID: groupID}

	occurrences := OccurrencesInRange([]Event{third, first, second}, day(2025, time.August, 1), day(2025, time.August, 31))
	if len(occurrences) != 3 {
		t.Fatalf("expected three occurrences, got %d", len(occurrences))
	}
	for i := 1; i < len(occurrences); i++ {
		if occurrences[i].Date.Before(occurrences[i-1].Date) {
			t.Fatalf("occurrences not date ordered: %v", occurrences)
		}
	}
	firstDayCount := 0
	for _, occurrence := range occurrences {
		if occurrence.FirstDay {
			firstDayCount++
			if occurrence.Event.ID != "cd-a" {
				t.Fatalf("wrong sibling designated first day: %s", occurrence.Event.ID)
			}
		}
	}
	if firstDayCount != 1 {
		t.Fatalf("expected exactly one first day, got %d", firstDayCount)
	}
}

func TestGroupedRangeClippedToSiblingDates(t *testing.T) {
	groupID := "group-1"
	first := Event{ID: "cd-a", Title: "Festival", Type: EventTypeCountdown, Date: day(2025, time.August, 30), GroupID: groupID}
	second := Event{ID: "cd-b", Title: "Festival", Type: EventTypeCountdown, Date: day(2025, time.September, 1), GroupID: groupID}

	occurrences := OccurrencesInRange([]Event{first, second}, day(2025, time.September, 1), day(2025, time.September, 30))
	if len(occurrences) != 1 {
		t.Fatalf("expected only the September sibling, got %d", len(occurrences))
	}
	if occurrences[0].Event.ID != "cd-b" {
		t.Fatalf("unexpected sibling: %s", occurrences[0].Event.ID)
	}
	if occurrences[0].FirstDay {
		t.Fatalf("second sibling must not own the reminder")
	}
}

func TestFirstDayOf(t *testing.T) {
	siblings := []Event{
		{ID: "cd-b", Date: day(2025, time.August, 2), GroupID: "g"},
		{ID: "cd-a", Date: day(2025, time.August, 1), GroupID: "g"},
	}
	first, ok := FirstDayOf(siblings)
	if !ok || first.ID != "cd-a" {
		t.Fatalf("unexpected first day: %+v ok=%v", first, ok)
	}
	if _, ok := FirstDayOf(nil); ok {
		t.Fatalf("expected no first day for empty group")
	}
}

func TestMultiDayOneShotSpansEndDate(t *testing.T) {
	end := day(2025, time.August, 3)
	event := Event{ID: "cd-span", Title: "Reunion", Type: EventTypeCountdown, Date: day(2025, time.August, 1), EndDate: &end}
	occurrences := OccurrencesInRange([]Event{event}, day(2025, time.August, 1), day(2025, time.August, 31))
	if len(occurrences) != 3 {
		t.Fatalf("expected three days, got %d", len(occurrences))
	}
}
