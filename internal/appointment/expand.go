package appointment

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// maxOccurrencesPerSeries caps RRULE expansion so a malformed or unbounded
// rule cannot produce an arbitrarily large series.
const maxOccurrencesPerSeries = 366

// Occurrence is one concrete instance of an appointment within a range.
type Occurrence struct {
	Appointment Appointment
	StartsAt    time.Time
}

// OccurrencesInRange expands every appointment into the inclusive
// [rangeStart, rangeEnd] window. Appointments without a recurrence rule
// contribute at most their stored instant; recurring ones are expanded via
// their RRULE with the stored start as DTSTART.
func OccurrencesInRange(appointments []Appointment, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, fmt.Errorf("appointment: range end %v before start %v", rangeEnd, rangeStart)
	}

	var occurrences []Occurrence
	for _, item := range appointments {
		if item.RecurrenceRule == "" {
			if !item.StartsAt.Before(rangeStart) && !item.StartsAt.After(rangeEnd) {
				occurrences = append(occurrences, Occurrence{Appointment: item, StartsAt: item.StartsAt})
			}
			continue
		}

		expanded, err := expandSeries(item, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, expanded...)
	}
	return occurrences, nil
}

func expandSeries(item Appointment, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	rule, err := rrule.StrToRRule(item.RecurrenceRule)
	if err != nil {
		return nil, fmt.Errorf("appointment: invalid recurrence rule for %s: %w", item.ID, err)
	}
	rule.DTStart(item.StartsAt)

	instants := rule.Between(rangeStart, rangeEnd, true)
	if len(instants) > maxOccurrencesPerSeries {
		instants = instants[:maxOccurrencesPerSeries]
	}

	occurrences := make([]Occurrence, 0, len(instants))
	for _, instant := range instants {
		occurrences = append(occurrences, Occurrence{Appointment: item, StartsAt: instant})
	}
	return occurrences, nil
}
