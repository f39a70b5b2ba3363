// Package wire defines the JSON payload contract shared by the device mirror
// and the household server. Remote field names are snake_case and fixed;
// decoding is an explicit, versioned step that backfills documented defaults
// for fields absent from older payloads rather than failing or guessing.
package wire

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire form of calendar dates (no clock, no zone).
const DateLayout = "2006-01-02"

// Documented defaults applied when a field is absent from an older payload.
const (
	DefaultSortOrder    = 0
	DefaultIsPaused     = false
	DefaultAllDay       = false
	DefaultIsRecurring  = false
	DefaultScheduleType = "scheduled"
	DefaultLogStatus    = "scheduled"
	DefaultDurationUnit = "days"
)

// ParseDate parses a wire date string.
func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("wire: invalid date %q: %w", raw, err)
	}
	return parsed, nil
}

// FormatDate renders a calendar date in its wire form.
func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

// ScheduleEntryPayload is one dosing rule inside a medication payload.
type ScheduleEntryPayload struct {
	Time          string `json:"time"`
	Dosage        string `json:"dosage,omitempty"`
	DaysOfWeek    []int  `json:"days_of_week"`
	DurationValue *int   `json:"duration_value,omitempty"`
	DurationUnit  string `json:"duration_unit,omitempty"`
	SortOrder     int    `json:"sort_order"`
}

// MedicationPayload is the wire form of a medication and its schedule. Older
// payloads carry the flat legacy shape (times + days_of_week at the top
// level) instead of schedule_entries.
type MedicationPayload struct {
	ID              string                 `json:"id"`
	AccountID       string                 `json:"account_id"`
	Name            string                 `json:"name"`
	Dosage          string                 `json:"dosage,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	ScheduleType    string                 `json:"schedule_type"`
	StartDate       string                 `json:"start_date"`
	EndDate         string                 `json:"end_date,omitempty"`
	IsPaused        bool                   `json:"is_paused"`
	ScheduleEntries []ScheduleEntryPayload `json:"schedule_entries,omitempty"`

	// Legacy flat shape, resolved into canonical entries at load time.
	Times      []string `json:"times,omitempty"`
	DaysOfWeek []int    `json:"days_of_week,omitempty"`
}

// MedicationLogPayload is the wire form of one realized occurrence.
type MedicationLogPayload struct {
	ID           string `json:"id"`
	AccountID    string `json:"account_id"`
	MedicationID string `json:"medication_id"`
	ScheduledAt  int64  `json:"scheduled_at_s"`
	Status       string `json:"status"`
	TakenAt      *int64 `json:"taken_at_s,omitempty"`
}

// AppointmentPayload is the wire form of a stored appointment. RecurrenceRule
// optionally carries an iCalendar RRULE expanded client-side.
type AppointmentPayload struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	Title          string `json:"title"`
	Location       string `json:"location,omitempty"`
	Notes          string `json:"notes,omitempty"`
	StartsAt       int64  `json:"starts_at_s"`
	EndsAt         *int64 `json:"ends_at_s,omitempty"`
	AllDay         bool   `json:"all_day"`
	RecurrenceRule string `json:"recurrence_rule,omitempty"`
	MemberID       string `json:"member_id,omitempty"`
}

// CountdownPayload is the wire form of a recurring single date (birthday or
// countdown). GroupID links sibling records of a multi-day event.
type CountdownPayload struct {
	ID               string `json:"id"`
	AccountID        string `json:"account_id"`
	Title            string `json:"title"`
	Type             string `json:"type"`
	CustomTypeName   string `json:"custom_type_name,omitempty"`
	Date             string `json:"date"`
	EndDate          string `json:"end_date,omitempty"`
	IsRecurring      bool   `json:"is_recurring"`
	GroupID          string `json:"group_id,omitempty"`
	Notes            string `json:"notes,omitempty"`
	ReminderInterval string `json:"reminder_interval,omitempty"`
	MemberID         string `json:"member_id,omitempty"`
}

// ProfilePayload is the wire form of a household member profile. Birthdays on
// the calendar are projected from BirthDate.
type ProfilePayload struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date,omitempty"`
	Color     string `json:"color,omitempty"`
}

// TodoItemPayload is one line of a todo list.
type TodoItemPayload struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TodoListPayload is the wire form of a shared todo list. Lists with a due
// date surface on the calendar.
type TodoListPayload struct {
	ID        string            `json:"id"`
	AccountID string            `json:"account_id"`
	Title     string            `json:"title"`
	DueDate   string            `json:"due_date,omitempty"`
	Items     []TodoItemPayload `json:"items,omitempty"`
	MemberID  string            `json:"member_id,omitempty"`
}

// scheduleEntryDoc mirrors ScheduleEntryPayload with pointer fields so absent
// keys can be told apart from zero values during decode.
type scheduleEntryDoc struct {
	Time          string `json:"time"`
	Dosage        string `json:"dosage"`
	DaysOfWeek    []int  `json:"days_of_week"`
	DurationValue *int   `json:"duration_value"`
	DurationUnit  *string `json:"duration_unit"`
	SortOrder     *int   `json:"sort_order"`
}

type medicationDoc struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"account_id"`
	Name            string             `json:"name"`
	Dosage          string             `json:"dosage"`
	Notes           string             `json:"notes"`
	ScheduleType    *string            `json:"schedule_type"`
	StartDate       string             `json:"start_date"`
	EndDate         string             `json:"end_date"`
	IsPaused        *bool              `json:"is_paused"`
	ScheduleEntries []scheduleEntryDoc `json:"schedule_entries"`
	Times           []string           `json:"times"`
	DaysOfWeek      []int              `json:"days_of_week"`
}

// DecodeMedication unmarshals a medication payload and backfills documented
// defaults: schedule_type -> "scheduled", is_paused -> false, per-entry
// sort_order -> 0 and duration_unit -> "days".
func DecodeMedication(data []byte) (MedicationPayload, error) {
	var doc medicationDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return MedicationPayload{}, fmt.Errorf("wire: decode medication: %w", err)
	}

	payload := MedicationPayload{
		ID:           doc.ID,
		AccountID:    doc.AccountID,
		Name:         doc.Name,
		Dosage:       doc.Dosage,
		Notes:        doc.Notes,
		ScheduleType: DefaultScheduleType,
		StartDate:    doc.StartDate,
		EndDate:      doc.EndDate,
		IsPaused:     DefaultIsPaused,
		Times:        doc.Times,
		DaysOfWeek:   doc.DaysOfWeek,
	}
	if doc.ScheduleType != nil {
		payload.ScheduleType = *doc.ScheduleType
	}
	if doc.IsPaused != nil {
		payload.IsPaused = *doc.IsPaused
	}
	for _, entry := range doc.ScheduleEntries {
		decoded := ScheduleEntryPayload{
			Time:          entry.Time,
			Dosage:        entry.Dosage,
			DaysOfWeek:    entry.DaysOfWeek,
			DurationValue: entry.DurationValue,
			DurationUnit:  DefaultDurationUnit,
			SortOrder:     DefaultSortOrder,
		}
		if entry.DurationUnit != nil {
			decoded.DurationUnit = *entry.DurationUnit
		}
		if entry.SortOrder != nil {
			decoded.SortOrder = *entry.SortOrder
		}
		payload.ScheduleEntries = append(payload.ScheduleEntries, decoded)
	}
	return payload, nil
}

type medicationLogDoc struct {
	ID           string  `json:"id"`
	AccountID    string  `json:"account_id"`
	MedicationID string  `json:"medication_id"`
	ScheduledAt  int64   `json:"scheduled_at_s"`
	Status       *string `json:"status"`
	TakenAt      *int64  `json:"taken_at_s"`
}

// DecodeMedicationLog unmarshals a log payload; a missing status defaults to
// "scheduled".
func DecodeMedicationLog(data []byte) (MedicationLogPayload, error) {
	var doc medicationLogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return MedicationLogPayload{}, fmt.Errorf("wire: decode medication log: %w", err)
	}
	payload := MedicationLogPayload{
		ID:           doc.ID,
		AccountID:    doc.AccountID,
		MedicationID: doc.MedicationID,
		ScheduledAt:  doc.ScheduledAt,
		Status:       DefaultLogStatus,
		TakenAt:      doc.TakenAt,
	}
	if doc.Status != nil {
		payload.Status = *doc.Status
	}
	return payload, nil
}

// DecodeAppointment unmarshals an appointment payload; a missing all_day
// defaults to false via the zero value, which matches the documented default.
func DecodeAppointment(data []byte) (AppointmentPayload, error) {
	var payload AppointmentPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return AppointmentPayload{}, fmt.Errorf("wire: decode appointment: %w", err)
	}
	return payload, nil
}

type countdownDoc struct {
	ID               string  `json:"id"`
	AccountID        string  `json:"account_id"`
	Title            string  `json:"title"`
	Type             *string `json:"type"`
	CustomTypeName   string  `json:"custom_type_name"`
	Date             string  `json:"date"`
	EndDate          string  `json:"end_date"`
	IsRecurring      *bool   `json:"is_recurring"`
	GroupID          string  `json:"group_id"`
	Notes            string  `json:"notes"`
	ReminderInterval string  `json:"reminder_interval"`
	MemberID         string  `json:"member_id"`
}

// DecodeCountdown unmarshals a countdown payload; a missing type defaults to
// "countdown" and a missing is_recurring to false.
func DecodeCountdown(data []byte) (CountdownPayload, error) {
	var doc countdownDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return CountdownPayload{}, fmt.Errorf("wire: decode countdown: %w", err)
	}
	payload := CountdownPayload{
		ID:               doc.ID,
		AccountID:        doc.AccountID,
		Title:            doc.Title,
		Type:             "countdown",
		CustomTypeName:   doc.CustomTypeName,
		Date:             doc.Date,
		EndDate:          doc.EndDate,
		IsRecurring:      DefaultIsRecurring,
		GroupID:          doc.GroupID,
		Notes:            doc.Notes,
		ReminderInterval: doc.ReminderInterval,
		MemberID:         doc.MemberID,
	}
	if doc.Type != nil {
		payload.Type = *doc.Type
	}
	if doc.IsRecurring != nil {
		payload.IsRecurring = *doc.IsRecurring
	}
	return payload, nil
}

// DecodeProfile unmarshals a profile payload. No defaults apply.
func DecodeProfile(data []byte) (ProfilePayload, error) {
	var payload ProfilePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ProfilePayload{}, fmt.Errorf("wire: decode profile: %w", err)
	}
	return payload, nil
}

// DecodeTodoList unmarshals a todo list payload. No defaults apply.
func DecodeTodoList(data []byte) (TodoListPayload, error) {
	var payload TodoListPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return TodoListPayload{}, fmt.Errorf("wire: decode todo list: %w", err)
	}
	return payload, nil
}

// Encode marshals any wire payload. Encoding always writes the full field
// set, so freshly pushed records never rely on decode-time backfill.
func Encode(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}
	return data, nil
}
