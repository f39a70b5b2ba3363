package notify

import (
	"fmt"
	"time"

	"github.com/kindredhq/hearth/internal/countdown"
	"github.com/kindredhq/hearth/internal/medication"
)

// defaultEventReminderClock is when day-pinned event reminders fire.
const defaultEventReminderClock = 9 * time.Hour

// MedicationReminders plans one reminder per dose instant on the date.
func MedicationReminders(schedules []medication.Schedule, date time.Time) []Reminder {
	var reminders []Reminder
	for _, occurrence := range medication.OccurrencesOn(schedules, date) {
		body := occurrence.Entry.Dosage
		if body == "" {
			body = occurrence.Schedule.Dosage
		}
		reminders = append(reminders, Reminder{
			ID:     fmt.Sprintf("medication-%s-%d", occurrence.Schedule.ID, occurrence.ScheduledAt.Unix()),
			Title:  occurrence.Schedule.Name,
			Body:   body,
			FireAt: occurrence.ScheduledAt,
		})
	}
	return reminders
}

// CountdownReminders plans reminders for upcoming countdowns and birthdays.
// Only the designated first day of a grouped event owns a reminder. The main
// reminder fires on the occurrence day; an event with a reminder interval
// additionally gets an advance reminder that much earlier.
func CountdownReminders(events []countdown.Event, from time.Time) []Reminder {
	firstDays := make(map[string]countdown.Event)
	for _, event := range events {
		if event.GroupID == "" {
			continue
		}
		siblings := siblingsOf(events, event.GroupID)
		if first, ok := countdown.FirstDayOf(siblings); ok {
			firstDays[event.GroupID] = first
		}
	}

	var reminders []Reminder
	for _, event := range events {
		if event.GroupID != "" && firstDays[event.GroupID].ID != event.ID {
			continue
		}
		next := countdown.NextOccurrence(event, from)
		fireAt := next.Add(defaultEventReminderClock)
		if !fireAt.After(from) && !event.IsRecurring {
			continue
		}

		reminders = append(reminders, Reminder{
			ID:        fmt.Sprintf("countdown-%s", event.ID),
			Title:     event.Title,
			FireAt:    fireAt,
			Recurring: event.IsRecurring,
		})
		if event.ReminderInterval != nil {
			advanceAt := fireAt.Add(-event.ReminderInterval.Duration())
			if advanceAt.After(from) {
				reminders = append(reminders, Reminder{
					ID:        fmt.Sprintf("countdown-%s-advance", event.ID),
					Title:     event.Title,
					Body:      "coming up",
					FireAt:    advanceAt,
					Recurring: event.IsRecurring,
				})
			}
		}
	}
	return reminders
}

func siblingsOf(events []countdown.Event, groupID string) []countdown.Event {
	var siblings []countdown.Event
	for _, event := range events {
		if event.GroupID == groupID {
			siblings = append(siblings, event)
		}
	}
	return siblings
}
