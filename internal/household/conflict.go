package household

import "time"

// resolveChange applies last-write-wins reconciliation to one pushed change.
// A change is accepted only when no server copy exists or when the change's
// updatedAt is strictly newer than the server copy's; ties keep the server
// copy, so replaying the same push twice is a no-op.
func resolveChange(existing *Record, accountID AccountID, change ChangeRequest, appliedAt time.Time) ConflictOutcome {
	stored := Record{
		AccountID:  accountID.String(),
		EntityType: change.EntityType,
		RecordID:   change.RecordID.String(),
	}
	if existing != nil {
		stored = *existing
	}

	accepted := existing == nil || change.UpdatedAtSeconds > stored.UpdatedAtSeconds
	if !accepted {
		copyStored := stored
		return ConflictOutcome{Accepted: false, UpdatedRecord: &copyStored}
	}

	updated := stored
	if updated.CreatedAtSeconds == 0 {
		switch {
		case change.CreatedAtSeconds > 0:
			updated.CreatedAtSeconds = change.CreatedAtSeconds
		case change.UpdatedAtSeconds > 0:
			updated.CreatedAtSeconds = change.UpdatedAtSeconds
		default:
			updated.CreatedAtSeconds = appliedAt.Unix()
		}
	}

	updated.LastWriterDevice = change.ClientDevice
	if change.Operation == OperationTypeDelete {
		updated.IsDeleted = true
		// A bare delete keeps the last payload for the audit trail.
		if change.PayloadJSON != "" {
			updated.PayloadJSON = change.PayloadJSON
		}
	} else {
		updated.IsDeleted = false
		updated.PayloadJSON = change.PayloadJSON
	}

	updated.UpdatedAtSeconds = change.UpdatedAtSeconds
	if updated.UpdatedAtSeconds == 0 {
		updated.UpdatedAtSeconds = appliedAt.Unix()
	}
	if updated.UpdatedAtSeconds < updated.CreatedAtSeconds {
		updated.CreatedAtSeconds = updated.UpdatedAtSeconds
	}

	nextVersion := stored.Version + 1
	if nextVersion <= 0 {
		nextVersion = 1
	}
	updated.Version = nextVersion

	audit := &RecordChange{
		AccountID:         updated.AccountID,
		EntityType:        updated.EntityType,
		RecordID:          updated.RecordID,
		AppliedAtSeconds:  appliedAt.Unix(),
		ClientDevice:      change.ClientDevice,
		ClientTimeSeconds: change.ClientTimeSeconds,
		Operation:         change.Operation,
		PayloadJSON:       updated.PayloadJSON,
	}
	if stored.Version > 0 {
		audit.PreviousVersion = pointerTo(stored.Version)
	}
	audit.NewVersion = pointerTo(updated.Version)

	return ConflictOutcome{Accepted: true, UpdatedRecord: &updated, AuditRecord: audit}
}

func pointerTo(value int64) *int64 {
	v := value
	return &v
}
