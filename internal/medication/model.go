// Package medication models medication schedules and realized dose logs, and
// implements the two scheduling algorithms built on them: sequential
// duration-window recurrence resolution and adherence aggregation. Everything
// in this package is pure; persistence happens in the device mirror and the
// household server, which exchange the wire payload forms.
package medication

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/wire"
)

var (
	// ErrEmptyWeekdaySet indicates a schedule entry with no active weekdays.
	ErrEmptyWeekdaySet = errors.New("medication: schedule entry has no active weekdays")
	// ErrInvalidDuration indicates a non-positive entry duration.
	ErrInvalidDuration = errors.New("medication: entry duration must be positive")
	// ErrInvalidScheduleType indicates an unknown schedule type value.
	ErrInvalidScheduleType = errors.New("medication: invalid schedule type")
	// ErrInvalidLogStatus indicates an unknown log status value.
	ErrInvalidLogStatus = errors.New("medication: invalid log status")
	// ErrMissingStartDate indicates a schedule payload without a start date.
	ErrMissingStartDate = errors.New("medication: schedule start date is required")
)

// ScheduleType distinguishes timed schedules from as-needed medications.
type ScheduleType string

const (
	ScheduleTypeScheduled ScheduleType = "scheduled"
	ScheduleTypeAsNeeded  ScheduleType = "as_needed"
)

// ParseScheduleType validates a raw schedule type string.
func ParseScheduleType(raw string) (ScheduleType, error) {
	switch ScheduleType(raw) {
	case ScheduleTypeScheduled, ScheduleTypeAsNeeded:
		return ScheduleType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScheduleType, raw)
	}
}

// DurationUnit enumerates the units an entry duration may carry.
type DurationUnit string

const (
	DurationUnitDays   DurationUnit = "days"
	DurationUnitWeeks  DurationUnit = "weeks"
	DurationUnitMonths DurationUnit = "months"
)

// monthApproximationDays is the documented 30-day approximation for
// month-valued durations. Window arithmetic is calendar-day based, not
// calendar-month accurate.
const monthApproximationDays = 30

// Duration is a validated positive entry duration.
type Duration struct {
	Value int
	Unit  DurationUnit
}

// NewDuration validates the value/unit pair.
func NewDuration(value int, unit string) (Duration, error) {
	if value <= 0 {
		return Duration{}, fmt.Errorf("%w: %d", ErrInvalidDuration, value)
	}
	switch DurationUnit(unit) {
	case DurationUnitDays, DurationUnitWeeks, DurationUnitMonths:
		return Duration{Value: value, Unit: DurationUnit(unit)}, nil
	default:
		return Duration{}, fmt.Errorf("%w: unknown unit %q", ErrInvalidDuration, unit)
	}
}

// Days converts the duration to calendar days.
func (d Duration) Days() int {
	switch d.Unit {
	case DurationUnitWeeks:
		return d.Value * 7
	case DurationUnitMonths:
		return d.Value * monthApproximationDays
	default:
		return d.Value
	}
}

// WeekdaySet is a Sunday-based set of active weekdays.
type WeekdaySet uint8

// NewWeekdaySet builds a set from raw indexes. Values outside 0-6 are ignored
// defensively; they occur in payloads written by buggy older clients and must
// never fail a load.
func NewWeekdaySet(days []int) WeekdaySet {
	var set WeekdaySet
	for _, day := range days {
		if day < 0 || day > 6 {
			continue
		}
		set |= 1 << uint(day)
	}
	return set
}

// AllWeekdays is the full seven-day set.
func AllWeekdays() WeekdaySet {
	return NewWeekdaySet([]int{0, 1, 2, 3, 4, 5, 6})
}

// Contains reports whether the Sunday-based index is in the set.
func (s WeekdaySet) Contains(weekday int) bool {
	if weekday < 0 || weekday > 6 {
		return false
	}
	return s&(1<<uint(weekday)) != 0
}

// IsEmpty reports whether no weekday is selected.
func (s WeekdaySet) IsEmpty() bool {
	return s == 0
}

// List returns the selected Sunday-based indexes in ascending order.
func (s WeekdaySet) List() []int {
	var days []int
	for day := 0; day < 7; day++ {
		if s.Contains(day) {
			days = append(days, day)
		}
	}
	return days
}

// ScheduleEntry is one dosing rule: a time of day, the weekdays it applies
// to, and an optional sequential duration window. A nil Duration means the
// entry runs forever and no later entry is reachable.
type ScheduleEntry struct {
	Time      dateutil.Clock
	Dosage    string
	Days      WeekdaySet
	Duration  *Duration
	SortOrder int
}

// NewScheduleEntry validates and constructs an entry. An empty weekday set is
// a validation failure, not a silent no-op.
func NewScheduleEntry(clock dateutil.Clock, dosage string, days WeekdaySet, duration *Duration, sortOrder int) (ScheduleEntry, error) {
	if days.IsEmpty() {
		return ScheduleEntry{}, ErrEmptyWeekdaySet
	}
	if duration != nil && duration.Value <= 0 {
		return ScheduleEntry{}, fmt.Errorf("%w: %d", ErrInvalidDuration, duration.Value)
	}
	return ScheduleEntry{
		Time:      clock,
		Dosage:    dosage,
		Days:      days,
		Duration:  duration,
		SortOrder: sortOrder,
	}, nil
}

// Schedule is the canonical in-memory form of a medication and its dosing
// rules. Legacy flat payloads are resolved into Entries once at load time, so
// the resolver never re-checks which shape a schedule came in as.
type Schedule struct {
	ID        string
	AccountID string
	Name      string
	Dosage    string
	Notes     string
	Type      ScheduleType
	StartDate time.Time
	EndDate   *time.Time
	IsPaused  bool
	Entries   []ScheduleEntry
}

// FromPayload decodes a wire medication payload into a canonical Schedule.
// Structured schedule_entries win when present; otherwise the legacy flat
// shape (single daily time plus a weekday list) becomes one synthetic entry
// with no duration bound.
func FromPayload(payload wire.MedicationPayload) (Schedule, error) {
	if payload.StartDate == "" {
		return Schedule{}, fmt.Errorf("%w: medication %s", ErrMissingStartDate, payload.ID)
	}
	startDate, err := wire.ParseDate(payload.StartDate)
	if err != nil {
		return Schedule{}, err
	}

	scheduleType, err := ParseScheduleType(payload.ScheduleType)
	if err != nil {
		return Schedule{}, err
	}

	schedule := Schedule{
		ID:        payload.ID,
		AccountID: payload.AccountID,
		Name:      payload.Name,
		Dosage:    payload.Dosage,
		Notes:     payload.Notes,
		Type:      scheduleType,
		StartDate: dateutil.StartOfDay(startDate),
		IsPaused:  payload.IsPaused,
	}

	if payload.EndDate != "" {
		endDate, err := wire.ParseDate(payload.EndDate)
		if err != nil {
			return Schedule{}, err
		}
		normalized := dateutil.StartOfDay(endDate)
		schedule.EndDate = &normalized
	}

	if len(payload.ScheduleEntries) > 0 {
		entries, err := entriesFromPayload(payload.ScheduleEntries)
		if err != nil {
			return Schedule{}, err
		}
		schedule.Entries = entries
		return schedule, nil
	}

	legacy, err := legacyEntry(payload)
	if err != nil {
		return Schedule{}, err
	}
	if legacy != nil {
		schedule.Entries = []ScheduleEntry{*legacy}
	}
	return schedule, nil
}

func entriesFromPayload(payloads []wire.ScheduleEntryPayload) ([]ScheduleEntry, error) {
	entries := make([]ScheduleEntry, 0, len(payloads))
	for _, entryPayload := range payloads {
		clock, err := dateutil.ParseClock(entryPayload.Time)
		if err != nil {
			return nil, err
		}
		var duration *Duration
		if entryPayload.DurationValue != nil {
			parsed, err := NewDuration(*entryPayload.DurationValue, entryPayload.DurationUnit)
			if err != nil {
				return nil, err
			}
			duration = &parsed
		}
		entry, err := NewScheduleEntry(clock, entryPayload.Dosage, NewWeekdaySet(entryPayload.DaysOfWeek), duration, entryPayload.SortOrder)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].SortOrder < entries[j].SortOrder
	})
	return entries, nil
}

// legacyEntry resolves the flat legacy shape. The legacy schema stored one
// daily time; any extra times are ignored defensively.
func legacyEntry(payload wire.MedicationPayload) (*ScheduleEntry, error) {
	if len(payload.Times) == 0 {
		return nil, nil
	}
	clock, err := dateutil.ParseClock(payload.Times[0])
	if err != nil {
		return nil, err
	}
	days := NewWeekdaySet(payload.DaysOfWeek)
	if days.IsEmpty() {
		days = AllWeekdays()
	}
	entry, err := NewScheduleEntry(clock, payload.Dosage, days, nil, 0)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ToPayload re-encodes the canonical schedule in the structured wire shape.
func (s Schedule) ToPayload() wire.MedicationPayload {
	payload := wire.MedicationPayload{
		ID:           s.ID,
		AccountID:    s.AccountID,
		Name:         s.Name,
		Dosage:       s.Dosage,
		Notes:        s.Notes,
		ScheduleType: string(s.Type),
		StartDate:    wire.FormatDate(s.StartDate),
		IsPaused:     s.IsPaused,
	}
	if s.EndDate != nil {
		payload.EndDate = wire.FormatDate(*s.EndDate)
	}
	for _, entry := range s.Entries {
		entryPayload := wire.ScheduleEntryPayload{
			Time:       entry.Time.String(),
			Dosage:     entry.Dosage,
			DaysOfWeek: entry.Days.List(),
			SortOrder:  entry.SortOrder,
		}
		if entry.Duration != nil {
			value := entry.Duration.Value
			entryPayload.DurationValue = &value
			entryPayload.DurationUnit = string(entry.Duration.Unit)
		}
		payload.ScheduleEntries = append(payload.ScheduleEntries, entryPayload)
	}
	return payload
}

// LogStatus tracks the lifecycle of one realized occurrence.
type LogStatus string

const (
	LogStatusScheduled LogStatus = "scheduled"
	LogStatusTaken     LogStatus = "taken"
	LogStatusMissed    LogStatus = "missed"
	LogStatusSkipped   LogStatus = "skipped"
)

// ParseLogStatus validates a raw status string.
func ParseLogStatus(raw string) (LogStatus, error) {
	switch LogStatus(raw) {
	case LogStatusScheduled, LogStatusTaken, LogStatusMissed, LogStatusSkipped:
		return LogStatus(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLogStatus, raw)
	}
}

// Log is one realized occurrence of a schedule entry. Logs are created by
// occurrence generation with status "scheduled" and mutated only through
// status transitions.
type Log struct {
	ID           string
	AccountID    string
	MedicationID string
	ScheduledAt  time.Time
	Status       LogStatus
	TakenAt      *time.Time
}

// WithStatus returns a copy of the log transitioned to the given status.
// TakenAt is recorded for "taken" and cleared otherwise.
func (l Log) WithStatus(status LogStatus, at time.Time) Log {
	updated := l
	updated.Status = status
	if status == LogStatusTaken {
		takenAt := at
		updated.TakenAt = &takenAt
	} else {
		updated.TakenAt = nil
	}
	return updated
}

// LogFromPayload decodes a wire log payload.
func LogFromPayload(payload wire.MedicationLogPayload) (Log, error) {
	status, err := ParseLogStatus(payload.Status)
	if err != nil {
		return Log{}, err
	}
	log := Log{
		ID:           payload.ID,
		AccountID:    payload.AccountID,
		MedicationID: payload.MedicationID,
		ScheduledAt:  time.Unix(payload.ScheduledAt, 0).UTC(),
		Status:       status,
	}
	if payload.TakenAt != nil {
		takenAt := time.Unix(*payload.TakenAt, 0).UTC()
		log.TakenAt = &takenAt
	}
	return log, nil
}

// ToPayload encodes the log in its wire form.
func (l Log) ToPayload() wire.MedicationLogPayload {
	payload := wire.MedicationLogPayload{
		ID:           l.ID,
		AccountID:    l.AccountID,
		MedicationID: l.MedicationID,
		ScheduledAt:  l.ScheduledAt.Unix(),
		Status:       string(l.Status),
	}
	if l.TakenAt != nil {
		takenAt := l.TakenAt.Unix()
		payload.TakenAt = &takenAt
	}
	return payload
}
