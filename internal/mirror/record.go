// Package mirror implements the device-local copy of the household dataset.
// Every synced collection lives in one table as an opaque payload envelope
// with sync bookkeeping: a dirty flag for pending pushes and a tombstone for
// pending deletions. The mirror is the only storage the device reads from,
// so every feature works identically with or without a reachable server.
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kindredhq/hearth/internal/wire"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidRecordID indicates an empty or oversized record identifier.
	ErrInvalidRecordID = errors.New("mirror: invalid record id")
	// ErrInvalidAccountID indicates an empty or oversized account identifier.
	ErrInvalidAccountID = errors.New("mirror: invalid account id")
)

// Record is the sync envelope around one stored payload. The payload itself
// stays opaque JSON; reconciliation never needs to understand it.
type Record struct {
	EntityType       wire.EntityType
	ID               string
	AccountID        string
	PayloadJSON      string
	UpdatedAtSeconds int64
	IsSynced         bool
	LocallyDeleted   bool
}

// NewLocalRecord wraps a payload value into an unsynced envelope. The caller
// stamps UpdatedAtSeconds through Store.SaveLocal.
func NewLocalRecord(entityType wire.EntityType, id, accountID string, payload any) (Record, error) {
	if err := validateIdentifier(id, ErrInvalidRecordID); err != nil {
		return Record{}, err
	}
	if err := validateIdentifier(accountID, ErrInvalidAccountID); err != nil {
		return Record{}, err
	}
	encoded, err := wire.Encode(payload)
	if err != nil {
		return Record{}, err
	}
	return Record{
		EntityType:  entityType,
		ID:          id,
		AccountID:   accountID,
		PayloadJSON: string(encoded),
	}, nil
}

func validateIdentifier(raw string, invalid error) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", invalid)
	}
	if len(trimmed) > maxIdentifierLength {
		return fmt.Errorf("%w: exceeds %d characters", invalid, maxIdentifierLength)
	}
	return nil
}

// MergeFromRemote reconciles a pulled record against the local copy and
// returns the envelope to store. Pulled data is authoritative with one
// exception: a local tombstone survives any incoming payload, so a deletion
// made offline cannot be resurrected by a pull that runs before its push.
func MergeFromRemote(local *Record, remote Record) Record {
	if local != nil && local.LocallyDeleted {
		return *local
	}
	merged := remote
	merged.IsSynced = true
	merged.LocallyDeleted = false
	return merged
}

// NeedsPush reports whether the record belongs in the outstanding push set.
func (r Record) NeedsPush() bool {
	return !r.IsSynced || r.LocallyDeleted
}
