package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
)

const icsProductID = "-//hearth//household calendar//EN"

// ExportICS renders a composed timeline as an iCalendar document so other
// calendar clients can subscribe to the household feed. Day-pinned events
// (birthdays, countdowns, due todo lists, all-day appointments) become
// all-day VEVENTs; timed events keep their instants.
func ExportICS(events []Event, now time.Time) string {
	document := ical.NewCalendar()
	document.SetMethod(ical.MethodPublish)
	document.SetProductId(icsProductID)

	for _, event := range events {
		entry := document.AddEvent(icsUID(event))
		entry.SetDtStampTime(now)
		entry.SetSummary(icsSummary(event))

		switch typed := event.(type) {
		case AppointmentEvent:
			if typed.Appointment.Location != "" {
				entry.SetLocation(typed.Appointment.Location)
			}
			if typed.Appointment.Notes != "" {
				entry.SetDescription(typed.Appointment.Notes)
			}
			if typed.Appointment.AllDay {
				setAllDay(entry, typed.Day())
				continue
			}
			entry.SetStartAt(typed.StartsAt)
			if typed.Appointment.EndsAt != nil && typed.Appointment.EndsAt.After(typed.StartsAt) {
				entry.SetEndAt(*typed.Appointment.EndsAt)
			} else {
				entry.SetEndAt(typed.StartsAt.Add(time.Hour))
			}
		case MedicationEvent:
			entry.SetStartAt(typed.Occurrence.ScheduledAt)
			entry.SetEndAt(typed.Occurrence.ScheduledAt.Add(15 * time.Minute))
		case CountdownEvent:
			if typed.Occurrence.Event.Notes != "" {
				entry.SetDescription(typed.Occurrence.Event.Notes)
			}
			setAllDay(entry, typed.Day())
		default:
			setAllDay(entry, typed.Day())
		}
	}
	return document.Serialize()
}

func setAllDay(entry *ical.VEvent, day time.Time) {
	entry.SetAllDayStartAt(day)
	entry.SetAllDayEndAt(day.AddDate(0, 0, 1))
}

// icsUID derives a stable per-occurrence identifier so re-exports produce
// the same UIDs and subscribing clients update in place.
func icsUID(event Event) string {
	var recordID string
	switch typed := event.(type) {
	case AppointmentEvent:
		recordID = typed.Appointment.ID
	case MedicationEvent:
		recordID = typed.Occurrence.Schedule.ID
	case BirthdayEvent:
		recordID = typed.Profile.ID
	case CountdownEvent:
		recordID = typed.Occurrence.Event.ID
	case TodoListEvent:
		recordID = typed.List.ID
	}
	return fmt.Sprintf("%s-%s-%s@hearth", event.Kind(), recordID, event.Day().Format("20060102"))
}

func icsSummary(event Event) string {
	switch typed := event.(type) {
	case MedicationEvent:
		if dosage := typed.Occurrence.Entry.Dosage; dosage != "" {
			return fmt.Sprintf("%s (%s)", typed.Title(), dosage)
		}
		return typed.Title()
	case BirthdayEvent:
		if typed.TurnsAge > 0 {
			return fmt.Sprintf("%s turns %d", typed.Profile.Name, typed.TurnsAge)
		}
		return fmt.Sprintf("%s's birthday", typed.Profile.Name)
	case CountdownEvent:
		if typed.Occurrence.FirstDay || typed.Occurrence.Event.GroupID == "" {
			return typed.Title()
		}
		return fmt.Sprintf("%s (cont.)", typed.Title())
	default:
		return event.Title()
	}
}
