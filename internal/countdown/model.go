// Package countdown models recurring single dates (birthdays, yearly
// countdowns, multi-day grouped events) and projects them onto the calendar.
package countdown

import (
	"errors"
	"fmt"
	"time"

	"github.com/kindredhq/hearth/internal/dateutil"
	"github.com/kindredhq/hearth/internal/wire"
)

var (
	// ErrMissingDate indicates a countdown payload without a date.
	ErrMissingDate = errors.New("countdown: date is required")
	// ErrInvalidEventType indicates an unknown event type value.
	ErrInvalidEventType = errors.New("countdown: invalid event type")
)

// EventType distinguishes birthdays from generic countdowns.
type EventType string

const (
	EventTypeBirthday  EventType = "birthday"
	EventTypeCountdown EventType = "countdown"
)

// ParseEventType validates a raw event type string.
func ParseEventType(raw string) (EventType, error) {
	switch EventType(raw) {
	case EventTypeBirthday, EventTypeCountdown:
		return EventType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, raw)
	}
}

// Event is one recurring or one-shot dated record. Sibling records sharing a
// GroupID represent consecutive days of a single multi-day event; they share
// title, type and baseline notes but carry distinct dates, and the earliest
// dated sibling is the designated first day that owns the reminder.
type Event struct {
	ID               string
	AccountID        string
	Title            string
	Type             EventType
	CustomTypeName   string
	Date             time.Time
	EndDate          *time.Time
	IsRecurring      bool
	GroupID          string
	Notes            string
	ReminderInterval *wire.ReminderInterval
	MemberID         string
}

// FromPayload decodes a wire countdown payload.
func FromPayload(payload wire.CountdownPayload) (Event, error) {
	if payload.Date == "" {
		return Event{}, fmt.Errorf("%w: countdown %s", ErrMissingDate, payload.ID)
	}
	date, err := wire.ParseDate(payload.Date)
	if err != nil {
		return Event{}, err
	}
	eventType, err := ParseEventType(payload.Type)
	if err != nil {
		return Event{}, err
	}

	event := Event{
		ID:             payload.ID,
		AccountID:      payload.AccountID,
		Title:          payload.Title,
		Type:           eventType,
		CustomTypeName: payload.CustomTypeName,
		Date:           dateutil.StartOfDay(date),
		IsRecurring:    payload.IsRecurring,
		GroupID:        payload.GroupID,
		Notes:          payload.Notes,
		MemberID:       payload.MemberID,
	}
	if payload.EndDate != "" {
		endDate, err := wire.ParseDate(payload.EndDate)
		if err != nil {
			return Event{}, err
		}
		normalized := dateutil.StartOfDay(endDate)
		event.EndDate = &normalized
	}
	if payload.ReminderInterval != "" {
		interval, err := wire.DecodeInterval(payload.ReminderInterval)
		if err != nil {
			return Event{}, err
		}
		event.ReminderInterval = &interval
	}
	return event, nil
}

// ToPayload encodes the event in its wire form.
func (e Event) ToPayload() wire.CountdownPayload {
	payload := wire.CountdownPayload{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Title:          e.Title,
		Type:           string(e.Type),
		CustomTypeName: e.CustomTypeName,
		Date:           wire.FormatDate(e.Date),
		IsRecurring:    e.IsRecurring,
		GroupID:        e.GroupID,
		Notes:          e.Notes,
		MemberID:       e.MemberID,
	}
	if e.EndDate != nil {
		payload.EndDate = wire.FormatDate(*e.EndDate)
	}
	if e.ReminderInterval != nil {
		payload.ReminderInterval = wire.EncodeInterval(*e.ReminderInterval)
	}
	return payload
}
