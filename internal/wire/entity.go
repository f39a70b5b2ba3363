package wire

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownEntityType indicates an entity type outside the synced set.
var ErrUnknownEntityType = errors.New("wire: unknown entity type")

// EntityType names one synced collection. Each type has its own mirror table
// on the device and its own sequential sync pass.
type EntityType string

const (
	EntityTypeMedication    EntityType = "medications"
	EntityTypeMedicationLog EntityType = "medication_logs"
	EntityTypeAppointment   EntityType = "appointments"
	EntityTypeCountdown     EntityType = "countdowns"
	EntityTypeProfile       EntityType = "profiles"
	EntityTypeTodoList      EntityType = "todo_lists"
)

// EntityTypes lists every synced collection in pass order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypeProfile,
		EntityTypeMedication,
		EntityTypeMedicationLog,
		EntityTypeAppointment,
		EntityTypeCountdown,
		EntityTypeTodoList,
	}
}

// ParseEntityType validates a raw entity type string.
func ParseEntityType(raw string) (EntityType, error) {
	candidate := EntityType(strings.TrimSpace(strings.ToLower(raw)))
	for _, known := range EntityTypes() {
		if candidate == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, raw)
}
