package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInterval indicates a reminder interval string that matches neither
// the "{value}_{unit}" form nor a known legacy value.
var ErrInvalidInterval = errors.New("wire: invalid reminder interval")

// IntervalUnit enumerates the units a reminder interval may carry.
type IntervalUnit string

const (
	IntervalUnitMinutes IntervalUnit = "minutes"
	IntervalUnitHours   IntervalUnit = "hours"
	IntervalUnitDays    IntervalUnit = "days"
	IntervalUnitWeeks   IntervalUnit = "weeks"
)

// ReminderInterval is the decoded {value, unit} pair behind the serialized
// "{value}_{unit}" reminder interval string.
type ReminderInterval struct {
	Value int
	Unit  IntervalUnit
}

// legacyIntervals maps historical fixed interval names to their documented
// {value, unit} equivalents. Decoding these is a hard compatibility
// requirement: payloads written by older clients still carry them.
var legacyIntervals = map[string]ReminderInterval{
	"every_15_minutes": {Value: 15, Unit: IntervalUnitMinutes},
	"every_30_minutes": {Value: 30, Unit: IntervalUnitMinutes},
	"every_hour":       {Value: 1, Unit: IntervalUnitHours},
	"every_2_hours":    {Value: 2, Unit: IntervalUnitHours},
	"every_4_hours":    {Value: 4, Unit: IntervalUnitHours},
	"every_6_hours":    {Value: 6, Unit: IntervalUnitHours},
	"every_12_hours":   {Value: 12, Unit: IntervalUnitHours},
	"daily":            {Value: 1, Unit: IntervalUnitDays},
	"weekly":           {Value: 1, Unit: IntervalUnitWeeks},
}

func parseIntervalUnit(raw string) (IntervalUnit, error) {
	switch IntervalUnit(raw) {
	case IntervalUnitMinutes, IntervalUnitHours, IntervalUnitDays, IntervalUnitWeeks:
		return IntervalUnit(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidInterval, raw)
	}
}

// Duration converts the interval to a time.Duration. Days and weeks use
// fixed 24-hour days.
func (i ReminderInterval) Duration() time.Duration {
	switch i.Unit {
	case IntervalUnitMinutes:
		return time.Duration(i.Value) * time.Minute
	case IntervalUnitHours:
		return time.Duration(i.Value) * time.Hour
	case IntervalUnitDays:
		return time.Duration(i.Value) * 24 * time.Hour
	case IntervalUnitWeeks:
		return time.Duration(i.Value) * 7 * 24 * time.Hour
	default:
		return 0
	}
}

// EncodeInterval serializes the interval to its canonical "{value}_{unit}"
// string, e.g. "30_minutes".
func EncodeInterval(interval ReminderInterval) string {
	return fmt.Sprintf("%d_%s", interval.Value, interval.Unit)
}

// DecodeInterval parses a serialized interval. The canonical "{value}_{unit}"
// form is tried first; legacy fixed names are decoded to their documented
// equivalents.
func DecodeInterval(raw string) (ReminderInterval, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ReminderInterval{}, fmt.Errorf("%w: empty", ErrInvalidInterval)
	}

	if legacy, ok := legacyIntervals[trimmed]; ok {
		return legacy, nil
	}

	valuePart, unitPart, found := strings.Cut(trimmed, "_")
	if !found {
		return ReminderInterval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, raw)
	}
	value, err := strconv.Atoi(valuePart)
	if err != nil || value <= 0 {
		return ReminderInterval{}, fmt.Errorf("%w: %q", ErrInvalidInterval, raw)
	}
	unit, err := parseIntervalUnit(unitPart)
	if err != nil {
		return ReminderInterval{}, err
	}
	return ReminderInterval{Value: value, Unit: unit}, nil
}
