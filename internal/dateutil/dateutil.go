// Package dateutil provides the calendar-day arithmetic shared by the
// scheduling components: start-of-day normalization, whole-day differences,
// Sunday-based weekday indexes and HH:MM clock parsing. All functions are
// pure and operate in the time.Location of their inputs.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock indicates a time-of-day string that is not "HH:MM".
var ErrInvalidClock = errors.New("dateutil: invalid clock value")

const hoursPerDay = 24

// StartOfDay truncates the instant to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from a to b.
// The result is negative when b precedes a. DST transitions are absorbed by
// rounding, so a 23- or 25-hour calendar day still counts as one day.
func DaysBetween(a, b time.Time) int {
	fromDay := StartOfDay(a)
	toDay := StartOfDay(b)
	hours := toDay.Sub(fromDay).Hours()
	days := int(hours / hoursPerDay)
	if remainder := hours - float64(days*hoursPerDay); remainder > 12 {
		days++
	} else if remainder < -12 {
		days--
	}
	return days
}

// WeekdayIndex returns the Sunday-based weekday index (Sunday=0 .. Saturday=6).
func WeekdayIndex(t time.Time) int {
	return int(t.Weekday())
}

// SameDay reports whether both instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Clock is a validated time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock validates an "HH:MM" string and returns its Clock.
func ParseClock(rawInput string) (Clock, error) {
	trimmed := strings.TrimSpace(rawInput)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, rawInput)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, rawInput)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, rawInput)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

// String renders the clock back to the canonical zero-padded "HH:MM" form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// OnDay places the clock onto the given calendar day.
func (c Clock) OnDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// MinutesOfDay returns the clock as minutes since midnight, used as a stable
// intra-day sort key.
func (c Clock) MinutesOfDay() int {
	return c.Hour*60 + c.Minute
}
