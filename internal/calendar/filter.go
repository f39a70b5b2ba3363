package calendar

import (
	"github.com/kindredhq/hearth/internal/countdown"
)

// Filter narrows a composed timeline. Categories combine with AND; the
// values inside one category combine with OR. An empty category places no
// constraint, so the zero Filter shows everything.
type Filter struct {
	// Kinds keeps only the listed event variants.
	Kinds []Kind
	// CountdownTypes keeps only countdown events whose type or custom type
	// name is listed. Other event kinds are unaffected.
	CountdownTypes []string
	// MemberIDs keeps only events attributed to the listed members. Events
	// without a member attribution do not match an active member filter.
	MemberIDs []string
}

// Matches reports whether the event passes every active category.
func (f Filter) Matches(event Event) bool {
	if !f.matchesKind(event.Kind()) {
		return false
	}
	if !f.matchesCountdownType(event) {
		return false
	}
	if !f.matchesMember(event.MemberID()) {
		return false
	}
	return true
}

func (f Filter) matchesKind(kind Kind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, allowed := range f.Kinds {
		if kind == allowed {
			return true
		}
	}
	return false
}

func (f Filter) matchesCountdownType(event Event) bool {
	if len(f.CountdownTypes) == 0 {
		return true
	}
	countdownEvent, ok := event.(CountdownEvent)
	if !ok {
		return true
	}
	stored := countdownEvent.Occurrence.Event
	for _, allowed := range f.CountdownTypes {
		if allowed == string(stored.Type) {
			return true
		}
		if stored.Type == countdown.EventTypeCountdown && stored.CustomTypeName != "" && allowed == stored.CustomTypeName {
			return true
		}
	}
	return false
}

func (f Filter) matchesMember(memberID string) bool {
	if len(f.MemberIDs) == 0 {
		return true
	}
	for _, allowed := range f.MemberIDs {
		if memberID == allowed {
			return true
		}
	}
	return false
}
