// Package appointment models stored appointments. An appointment is a plain
// dated record; an optional iCalendar RRULE turns it into a recurring series
// expanded on the device at query time.
package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/kindredhq/hearth/internal/wire"
)

// ErrMissingTitle indicates an appointment payload without a title.
var ErrMissingTitle = errors.New("appointment: title is required")

// Appointment is the in-memory form of one stored appointment.
type Appointment struct {
	ID             string
	AccountID      string
	Title          string
	Location       string
	Notes          string
	StartsAt       time.Time
	EndsAt         *time.Time
	AllDay         bool
	RecurrenceRule string
	MemberID       string
}

// FromPayload decodes a wire appointment payload.
func FromPayload(payload wire.AppointmentPayload) (Appointment, error) {
	if payload.Title == "" {
		return Appointment{}, fmt.Errorf("%w: appointment %s", ErrMissingTitle, payload.ID)
	}
	appointment := Appointment{
		ID:             payload.ID,
		AccountID:      payload.AccountID,
		Title:          payload.Title,
		Location:       payload.Location,
		Notes:          payload.Notes,
		StartsAt:       time.Unix(payload.StartsAt, 0).UTC(),
		AllDay:         payload.AllDay,
		RecurrenceRule: payload.RecurrenceRule,
		MemberID:       payload.MemberID,
	}
	if payload.EndsAt != nil {
		endsAt := time.Unix(*payload.EndsAt, 0).UTC()
		appointment.EndsAt = &endsAt
	}
	return appointment, nil
}

// ToPayload encodes the appointment in its wire form.
func (a Appointment) ToPayload() wire.AppointmentPayload {
	payload := wire.AppointmentPayload{
		ID:             a.ID,
		AccountID:      a.AccountID,
		Title:          a.Title,
		Location:       a.Location,
		Notes:          a.Notes,
		StartsAt:       a.StartsAt.Unix(),
		AllDay:         a.AllDay,
		RecurrenceRule: a.RecurrenceRule,
		MemberID:       a.MemberID,
	}
	if a.EndsAt != nil {
		endsAt := a.EndsAt.Unix()
		payload.EndsAt = &endsAt
	}
	return payload
}
