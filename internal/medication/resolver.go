package medication

import (
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
)

// ActiveEntries returns the schedule entries active on the given date, in
// sort order.
//
// Entries consume the calendar sequentially: the first entry's window starts
// at the schedule's start date and runs for its duration in days, the next
// entry's window begins the day after, and so on. Duration consumption is
// calendar-day based, so weekday filtering inside a window never stretches
// it. An entry without a duration runs forever and terminates the scan; no
// later entry is reachable behind it.
func ActiveEntries(schedule Schedule, date time.Time) []ScheduleEntry {
	if schedule.IsPaused || schedule.Type == ScheduleTypeAsNeeded {
		return nil
	}

	day := dateutil.StartOfDay(date)
	daysSinceStart := dateutil.DaysBetween(schedule.StartDate, day)
	if daysSinceStart < 0 {
		return nil
	}
	if schedule.EndDate != nil && day.After(*schedule.EndDate) {
		return nil
	}

	weekday := dateutil.WeekdayIndex(day)

	var active []ScheduleEntry
	cumulativeDays := 0
	for _, entry := range schedule.Entries {
		if entry.Duration == nil {
			if daysSinceStart >= cumulativeDays && entry.Days.Contains(weekday) {
				active = append(active, entry)
			}
			break
		}

		windowEnd := cumulativeDays + entry.Duration.Days() - 1
		if daysSinceStart >= cumulativeDays && daysSinceStart <= windowEnd && entry.Days.Contains(weekday) {
			active = append(active, entry)
		}
		cumulativeDays += entry.Duration.Days()
	}
	return active
}

// IsActive reports whether any entry of the schedule is active on the date.
func IsActive(schedule Schedule, date time.Time) bool {
	return len(ActiveEntries(schedule, date)) > 0
}
