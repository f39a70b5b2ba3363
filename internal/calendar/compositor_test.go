package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/kindredhq/hearth/internal/appointment"
	"github.com/kindredhq/hearth/internal/countdown"
	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/medication"
	"github.com/kindredhq/hearth/internal/profile"
	"github.com/kindredhq/hearth/internal/todolist"
)

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func mustSchedule(t *testing.T, id, name, clock string) medication.Schedule {
	t.Helper()
	parsed, err := dateutil.ParseClock(clock)
	if err != nil {
		t.Fatalf("parse clock %q: %v", clock, err)
	}
	entry, err := medication.NewScheduleEntry(parsed, "1 tablet", medication.AllWeekdays(), nil, 0)
	if err != nil {
		t.Fatalf("build entry: %v", err)
	}
	return medication.Schedule{
		ID:        id,
		AccountID: "acct-1",
		Name:      name,
		Type:      medication.ScheduleTypeScheduled,
		StartDate: day(2025, time.January, 1),
		Entries:   []medication.ScheduleEntry{entry},
	}
}

func testSources(t *testing.T) Sources {
	t.Helper()
	birthDate := day(1990, time.July, 12)
	dueDate := day(2025, time.July, 10)
	return Sources{
		Schedules: []medication.Schedule{mustSchedule(t, "med-1", "Lisinopril", "08:00")},
		Appointments: []appointment.Appointment{{
			ID:        "appt-1",
			AccountID: "acct-1",
			Title:     "Dentist",
			StartsAt:  time.Date(2025, time.July, 10, 14, 30, 0, 0, time.UTC),
			MemberID:  "prof-2",
		}},
		Countdowns: []countdown.Event{{
			ID:          "cd-1",
			AccountID:   "acct-1",
			Title:       "Vacation",
			Type:        countdown.EventTypeCountdown,
			Date:        day(2025, time.July, 20),
			IsRecurring: false,
		}},
		Profiles: []profile.Profile{{
			ID:        "prof-1",
			AccountID: "acct-1",
			Name:      "Maya",
			BirthDate: &birthDate,
		}},
		TodoLists: []todolist.List{{
			ID:        "todo-1",
			AccountID: "acct-1",
			Title:     "Pack bags",
			DueDate:   &dueDate,
			MemberID:  "prof-2",
		}},
	}
}

func TestComposeOrdersByDayThenTime(t *testing.T) {
	events, err := Compose(testSources(t), day(2025, time.July, 10), day(2025, time.July, 10), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []string
	for _, event := range events {
		kinds = append(kinds, string(event.Kind()))
	}
	// The time-less todo list pins to the start of the day, then the 08:00
	// dose, then the 14:30 appointment.
	want := []string{"todo_list", "medication", "appointment"}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, kinds)
		}
	}
}

func TestComposeProjectsBirthdayWithAge(t *testing.T) {
	events, err := Compose(testSources(t), day(2025, time.July, 1), day(2025, time.July, 31), Filter{Kinds: []Kind{KindBirthday}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one birthday, got %d", len(events))
	}
	birthday, ok := events[0].(BirthdayEvent)
	if !ok {
		t.Fatalf("expected BirthdayEvent, got %T", events[0])
	}
	if !birthday.Date.Equal(day(2025, time.July, 12)) {
		t.Fatalf("unexpected birthday date: %v", birthday.Date)
	}
	if birthday.TurnsAge != 35 {
		t.Fatalf("expected age 35, got %d", birthday.TurnsAge)
	}
}

func TestComposeCountdownDaysRemaining(t *testing.T) {
	events, err := Compose(testSources(t), day(2025, time.July, 10), day(2025, time.July, 31), Filter{Kinds: []Kind{KindCountdown}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one countdown, got %d", len(events))
	}
	vacation := events[0].(CountdownEvent)
	if vacation.DaysRemaining != 10 {
		t.Fatalf("expected 10 days remaining, got %d", vacation.DaysRemaining)
	}
}

func TestComposeEmptyFilterShowsEverything(t *testing.T) {
	events, err := Compose(testSources(t), day(2025, time.July, 1), day(2025, time.July, 31), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[Kind]bool{}
	for _, event := range events {
		seen[event.Kind()] = true
	}
	for _, kind := range Kinds() {
		if !seen[kind] {
			t.Fatalf("kind %s missing from unfiltered composition", kind)
		}
	}
}

func TestComposeMemberFilter(t *testing.T) {
	events, err := Compose(testSources(t), day(2025, time.July, 1), day(2025, time.July, 31), Filter{MemberIDs: []string{"prof-2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, event := range events {
		if event.MemberID() != "prof-2" {
			t.Fatalf("member filter leaked event %s (%s)", event.Title(), event.Kind())
		}
	}
	if len(events) != 2 {
		t.Fatalf("expected appointment and todo list, got %d events", len(events))
	}
}

func TestComposeRejectsInvertedRange(t *testing.T) {
	if _, err := Compose(Sources{}, day(2025, time.July, 31), day(2025, time.July, 1), Filter{}); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestExportICSStableUIDs(t *testing.T) {
	now := time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC)
	events, err := Compose(testSources(t), day(2025, time.July, 10), day(2025, time.July, 10), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := ExportICS(events, now)
	second := ExportICS(events, now)
	if first != second {
		t.Fatalf("export is not deterministic")
	}
	if !strings.Contains(first, "BEGIN:VEVENT") {
		t.Fatalf("expected events in output:\n%s", first)
	}
	if !strings.Contains(first, "appointment-appt-1-20250710@hearth") {
		t.Fatalf("expected stable appointment UID in output:\n%s", first)
	}
	if !strings.Contains(first, "Lisinopril (1 tablet)") {
		t.Fatalf("expected dose summary in output:\n%s", first)
	}
}
