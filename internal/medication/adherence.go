package medication

import (
	"math"
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
)

// DayClass classifies how completely one day's scheduled doses were taken.
type DayClass string

const (
	// DayClassAllTaken means every logged dose was taken.
	DayClassAllTaken DayClass = "all_taken"
	// DayClassPartialTaken means some but not all logged doses were taken.
	DayClassPartialTaken DayClass = "partial_taken"
	// DayClassNoneTaken means no logged dose was taken.
	DayClassNoneTaken DayClass = "none_taken"
	// DayClassNoMedications means nothing was due and nothing was logged.
	DayClassNoMedications DayClass = "no_medications"
	// DayClassScheduled means doses are due but not yet logged (future days),
	// distinct from "nothing due".
	DayClassScheduled DayClass = "scheduled"
)

// ClassifyDay classifies a day purely from its logs.
func ClassifyDay(logs []Log) DayClass {
	if len(logs) == 0 {
		return DayClassNoMedications
	}
	takenCount := 0
	for _, log := range logs {
		if log.Status == LogStatusTaken {
			takenCount++
		}
	}
	switch takenCount {
	case len(logs):
		return DayClassAllTaken
	case 0:
		return DayClassNoneTaken
	default:
		return DayClassPartialTaken
	}
}

// ClassifyDayWithSchedules classifies a day, distinguishing unlogged days
// that still have doses due (per the recurrence resolver) from days with no
// medications at all.
func ClassifyDayWithSchedules(date time.Time, logs []Log, schedules []Schedule) DayClass {
	if len(logs) > 0 {
		return ClassifyDay(logs)
	}
	for _, schedule := range schedules {
		if IsActive(schedule, date) {
			return DayClassScheduled
		}
	}
	return DayClassNoMedications
}

// MonthlySummary aggregates log outcomes over a period.
type MonthlySummary struct {
	TakenCount          int
	MissedCount         int
	SkippedCount        int
	AdherencePercentage int
}

// Summarize computes counts and the adherence percentage over the given logs.
// Logs still in "scheduled" status represent the future and are excluded from
// the denominator; an empty denominator yields zero percent.
func Summarize(logs []Log) MonthlySummary {
	var summary MonthlySummary
	for _, log := range logs {
		switch log.Status {
		case LogStatusTaken:
			summary.TakenCount++
		case LogStatusMissed:
			summary.MissedCount++
		case LogStatusSkipped:
			summary.SkippedCount++
		}
	}
	denominator := summary.TakenCount + summary.MissedCount + summary.SkippedCount
	if denominator > 0 {
		summary.AdherencePercentage = int(math.Round(100 * float64(summary.TakenCount) / float64(denominator)))
	}
	return summary
}

const (
	// streakScanBound caps the backward walk regardless of log density.
	streakScanBound = 365
	// streakEmptyRunBound stops an all-empty scan early when no streak has
	// been established yet.
	streakEmptyRunBound = 30
)

// CurrentStreak counts consecutive fully-taken days walking backward from
// today. Days with no realized logs contribute nothing and do not break the
// streak; logs still in "scheduled" status are pending, not outcomes, so a
// day holding only those counts as unlogged. The first logged day that is
// not fully taken stops the walk.
func CurrentStreak(today time.Time, logsForDay func(day time.Time) []Log) int {
	streak := 0
	emptyRun := 0
	day := dateutil.StartOfDay(today)

	for scanned := 0; scanned < streakScanBound; scanned++ {
		logs := realizedLogs(logsForDay(day))
		if len(logs) == 0 {
			emptyRun++
			if streak == 0 && emptyRun >= streakEmptyRunBound {
				break
			}
			day = day.AddDate(0, 0, -1)
			continue
		}
		emptyRun = 0
		if ClassifyDay(logs) != DayClassAllTaken {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func realizedLogs(logs []Log) []Log {
	realized := make([]Log, 0, len(logs))
	for _, log := range logs {
		if log.Status != LogStatusScheduled {
			realized = append(realized, log)
		}
	}
	return realized
}
