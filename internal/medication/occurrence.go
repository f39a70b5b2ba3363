package medication

import (
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
)

// Occurrence is one concrete (date, entry) instance derived from a schedule.
type Occurrence struct {
	Schedule    Schedule
	Entry       ScheduleEntry
	ScheduledAt time.Time
}

// OccurrencesOn materializes the occurrences every given schedule produces on
// a date, one per active entry.
func OccurrencesOn(schedules []Schedule, date time.Time) []Occurrence {
	day := dateutil.StartOfDay(date)
	var occurrences []Occurrence
	for _, schedule := range schedules {
		for _, entry := range ActiveEntries(schedule, day) {
			occurrences = append(occurrences, Occurrence{
				Schedule:    schedule,
				Entry:       entry,
				ScheduledAt: entry.Time.OnDay(day),
			})
		}
	}
	return occurrences
}

// IDProvider supplies identifiers for generated logs.
type IDProvider interface {
	NewID() (string, error)
}

// GenerateLogs returns the "scheduled" status logs that should exist for the
// date but do not yet: one per occurrence with no existing log at the same
// medication and instant. Generation is a pure mutation intent; persisting
// the returned logs is the caller's job. Logs are regenerated this way when
// a schedule changes or a pause is lifted.
func GenerateLogs(schedules []Schedule, existing []Log, date time.Time, ids IDProvider) ([]Log, error) {
	type logKey struct {
		medicationID string
		scheduledAt  int64
	}
	seen := make(map[logKey]bool, len(existing))
	for _, log := range existing {
		seen[logKey{medicationID: log.MedicationID, scheduledAt: log.ScheduledAt.Unix()}] = true
	}

	var generated []Log
	for _, occurrence := range OccurrencesOn(schedules, date) {
		key := logKey{
			medicationID: occurrence.Schedule.ID,
			scheduledAt:  occurrence.ScheduledAt.Unix(),
		}
		if seen[key] {
			continue
		}
		id, err := ids.NewID()
		if err != nil {
			return nil, err
		}
		generated = append(generated, Log{
			ID:           id,
			AccountID:    occurrence.Schedule.AccountID,
			MedicationID: occurrence.Schedule.ID,
			ScheduledAt:  occurrence.ScheduledAt,
			Status:       LogStatusScheduled,
		})
		seen[key] = true
	}
	return generated, nil
}
