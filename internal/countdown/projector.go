package countdown

import (
	"sort"
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
)

// Occurrence is one concrete calendar day produced by an event. For grouped
// multi-day events each sibling yields its own occurrence; FirstDay marks the
// sibling that owns the scheduled reminder.
type Occurrence struct {
	Event    Event
	Date     time.Time
	FirstDay bool
}

// NextOccurrence projects the event's next calendar day at or after the
// reference instant. Annual recurrence keeps the stored month and day: if
// this year's date has already passed (strictly before the reference day),
// the occurrence advances to next year. Non-recurring events use the stored
// date verbatim, even when it lies in the past.
func NextOccurrence(event Event, from time.Time) time.Time {
	if !event.IsRecurring {
		return event.Date
	}
	fromDay := dateutil.StartOfDay(from)
	thisYear := time.Date(fromDay.Year(), event.Date.Month(), event.Date.Day(), 0, 0, 0, 0, fromDay.Location())
	if thisYear.Before(fromDay) {
		return time.Date(fromDay.Year()+1, event.Date.Month(), event.Date.Day(), 0, 0, 0, 0, fromDay.Location())
	}
	return thisYear
}

// DaysUntil returns the whole calendar days from the reference instant to the
// event's next occurrence, floored at zero. It is never negative; use
// HasPassed to detect past one-shot events.
func DaysUntil(event Event, from time.Time) int {
	days := dateutil.DaysBetween(from, NextOccurrence(event, from))
	if days < 0 {
		return 0
	}
	return days
}

// HasPassed reports whether a non-recurring event's date lies before the
// reference day. Recurring events never pass; they roll over instead.
func HasPassed(event Event, now time.Time) bool {
	if event.IsRecurring {
		return false
	}
	return dateutil.DaysBetween(now, event.Date) < 0
}

// FirstDayOf returns the designated first day of a group: the sibling with
// the earliest date. Events without a group are their own first day.
func FirstDayOf(siblings []Event) (Event, bool) {
	if len(siblings) == 0 {
		return Event{}, false
	}
	first := siblings[0]
	for _, sibling := range siblings[1:] {
		if sibling.Date.Before(first.Date) {
			first = sibling
		}
	}
	return first, true
}

// OccurrencesInRange projects every event onto the inclusive [rangeStart,
// rangeEnd] day range. Grouped siblings each contribute the days their own
// date covers; annual events contribute one day per year the range spans.
func OccurrencesInRange(events []Event, rangeStart, rangeEnd time.Time) []Occurrence {
	startDay := dateutil.StartOfDay(rangeStart)
	endDay := dateutil.StartOfDay(rangeEnd)
	if endDay.Before(startDay) {
		return nil
	}

	firstDays := groupFirstDays(events)

	var occurrences []Occurrence
	for _, event := range events {
		for _, occurrenceDay := range eventDaysInRange(event, startDay, endDay) {
			occurrences = append(occurrences, Occurrence{
				Event:    event,
				Date:     occurrenceDay,
				FirstDay: isFirstDay(event, firstDays),
			})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})
	return occurrences
}

func eventDaysInRange(event Event, startDay, endDay time.Time) []time.Time {
	if !event.IsRecurring {
		var days []time.Time
		last := event.Date
		if event.EndDate != nil && event.EndDate.After(last) {
			last = *event.EndDate
		}
		for cursor := event.Date; !cursor.After(last); cursor = cursor.AddDate(0, 0, 1) {
			if !cursor.Before(startDay) && !cursor.After(endDay) {
				days = append(days, cursor)
			}
		}
		return days
	}

	var days []time.Time
	for year := startDay.Year(); year <= endDay.Year(); year++ {
		candidate := time.Date(year, event.Date.Month(), event.Date.Day(), 0, 0, 0, 0, startDay.Location())
		if !candidate.Before(startDay) && !candidate.After(endDay) {
			days = append(days, candidate)
		}
	}
	return days
}

// groupFirstDays maps each group id to the earliest stored date among its
// siblings.
func groupFirstDays(events []Event) map[string]time.Time {
	firstDays := make(map[string]time.Time)
	for _, event := range events {
		if event.GroupID == "" {
			continue
		}
		current, ok := firstDays[event.GroupID]
		if !ok || event.Date.Before(current) {
			firstDays[event.GroupID] = event.Date
		}
	}
	return firstDays
}

// isFirstDay reports whether the sibling carries its group's earliest stored
// date. Ungrouped events are their own first day.
func isFirstDay(event Event, firstDays map[string]time.Time) bool {
	if event.GroupID == "" {
		return true
	}
	first, ok := firstDays[event.GroupID]
	if !ok {
		return true
	}
	return event.Date.Equal(first)
}
