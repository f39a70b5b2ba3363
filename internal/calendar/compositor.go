package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/kindredhq/hearth/internal/appointment"
	"github.com/kindredhq/hearth/internal/countdown"
	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/medication"
	"github.com/kindredhq/hearth/internal/profile"
	"github.com/kindredhq/hearth/internal/todolist"
)

// Sources holds the already-loaded records the compositor projects onto the
// timeline. Loading is the caller's concern; composition is pure.
type Sources struct {
	Schedules    []medication.Schedule
	Appointments []appointment.Appointment
	Countdowns   []countdown.Event
	Profiles     []profile.Profile
	TodoLists    []todolist.List
}

// Compose projects every source onto the inclusive [rangeStart, rangeEnd]
// day range, drops events the filter rejects and returns the rest ordered
// by day, then by time of day.
func Compose(sources Sources, rangeStart, rangeEnd time.Time, filter Filter) ([]Event, error) {
	startDay := dateutil.StartOfDay(rangeStart)
	endDay := dateutil.StartOfDay(rangeEnd)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("calendar: range end %v before start %v", rangeEnd, rangeStart)
	}

	var events []Event

	appointmentEvents, err := appointmentEventsInRange(sources.Appointments, startDay, endDay)
	if err != nil {
		return nil, err
	}
	events = append(events, appointmentEvents...)
	events = append(events, medicationEventsInRange(sources.Schedules, startDay, endDay)...)
	events = append(events, countdownEventsInRange(sources.Countdowns, startDay, endDay)...)
	events = append(events, birthdayEventsInRange(sources.Profiles, startDay, endDay)...)
	events = append(events, todoListEventsInRange(sources.TodoLists, startDay, endDay)...)

	filtered := events[:0]
	for _, event := range events {
		if filter.Matches(event) {
			filtered = append(filtered, event)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].Day().Equal(filtered[j].Day()) {
			return filtered[i].Day().Before(filtered[j].Day())
		}
		return filtered[i].sortMinutes() < filtered[j].sortMinutes()
	})
	return filtered, nil
}

func appointmentEventsInRange(appointments []appointment.Appointment, startDay, endDay time.Time) ([]Event, error) {
	rangeEnd := endDay.AddDate(0, 0, 1).Add(-time.Second)
	occurrences, err := appointment.OccurrencesInRange(appointments, startDay, rangeEnd)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(occurrences))
	for _, occurrence := range occurrences {
		events = append(events, AppointmentEvent{Appointment: occurrence.Appointment, StartsAt: occurrence.StartsAt})
	}
	return events, nil
}

func medicationEventsInRange(schedules []medication.Schedule, startDay, endDay time.Time) []Event {
	var events []Event
	for cursor := startDay; !cursor.After(endDay); cursor = cursor.AddDate(0, 0, 1) {
		for _, occurrence := range medication.OccurrencesOn(schedules, cursor) {
			events = append(events, MedicationEvent{Occurrence: occurrence})
		}
	}
	return events
}

func countdownEventsInRange(countdowns []countdown.Event, startDay, endDay time.Time) []Event {
	occurrences := countdown.OccurrencesInRange(countdowns, startDay, endDay)
	events := make([]Event, 0, len(occurrences))
	for _, occurrence := range occurrences {
		remaining := dateutil.DaysBetween(startDay, occurrence.Date)
		if remaining < 0 {
			remaining = 0
		}
		events = append(events, CountdownEvent{Occurrence: occurrence, DaysRemaining: remaining})
	}
	return events
}

// birthdayEventsInRange projects each profile's birth month and day onto
// every year the range spans.
func birthdayEventsInRange(profiles []profile.Profile, startDay, endDay time.Time) []Event {
	var events []Event
	for _, member := range profiles {
		if member.BirthDate == nil {
			continue
		}
		for year := startDay.Year(); year <= endDay.Year(); year++ {
			candidate := time.Date(year, member.BirthDate.Month(), member.BirthDate.Day(), 0, 0, 0, 0, startDay.Location())
			if candidate.Before(startDay) || candidate.After(endDay) {
				continue
			}
			events = append(events, BirthdayEvent{
				Profile:  member,
				Date:     candidate,
				TurnsAge: member.AgeTurning(year),
			})
		}
	}
	return events
}

func todoListEventsInRange(lists []todolist.List, startDay, endDay time.Time) []Event {
	var events []Event
	for _, list := range lists {
		if list.DueDate == nil {
			continue
		}
		dueDay := dateutil.StartOfDay(*list.DueDate)
		if dueDay.Before(startDay) || dueDay.After(endDay) {
			continue
		}
		events = append(events, TodoListEvent{List: list, DueDate: dueDay})
	}
	return events
}
