// Package profile models household member profiles. A profile with a birth
// date contributes an annual birthday to the shared calendar.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/kindredhq/hearth/internal/wire"
)

// ErrMissingName indicates a profile payload without a name.
var ErrMissingName = errors.New("profile: name is required")

// Profile is the in-memory form of one household member.
type Profile struct {
	ID        string
	AccountID string
	Name      string
	BirthDate *time.Time
	Color     string
}

// FromPayload decodes a wire profile payload.
func FromPayload(payload wire.ProfilePayload) (Profile, error) {
	if payload.Name == "" {
		return Profile{}, fmt.Errorf("%w: profile %s", ErrMissingName, payload.ID)
	}
	member := Profile{
		ID:        payload.ID,
		AccountID: payload.AccountID,
		Name:      payload.Name,
		Color:     payload.Color,
	}
	if payload.BirthDate != "" {
		birthDate, err := wire.ParseDate(payload.BirthDate)
		if err != nil {
			return Profile{}, err
		}
		member.BirthDate = &birthDate
	}
	return member, nil
}

// ToPayload encodes the profile in its wire form.
func (p Profile) ToPayload() wire.ProfilePayload {
	payload := wire.ProfilePayload{
		ID:        p.ID,
		AccountID: p.AccountID,
		Name:      p.Name,
		Color:     p.Color,
	}
	if p.BirthDate != nil {
		payload.BirthDate = wire.FormatDate(*p.BirthDate)
	}
	return payload
}

// AgeTurning reports the age the member turns on a birthday occurrence that
// falls in the given year. Zero when the profile has no birth date.
func (p Profile) AgeTurning(year int) int {
	if p.BirthDate == nil {
		return 0
	}
	return year - p.BirthDate.Year()
}
