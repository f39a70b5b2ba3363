// Package household is the authoritative server-side store for one shared
// household dataset. Every synced collection is persisted as an opaque
// payload row with reconciliation metadata; accepted changes also land in an
// append-only audit trail.
package household

import (
	"errors"
	"fmt"
	"strings"
)

// OperationType enumerates supported device operations.
type OperationType string

const (
	// OperationTypeUpsert represents an insert or update payload.
	OperationTypeUpsert OperationType = "upsert"
	// OperationTypeDelete marks a record as deleted.
	OperationTypeDelete OperationType = "delete"
)

// ParseOperationType validates a raw operation string.
func ParseOperationType(raw string) (OperationType, error) {
	switch OperationType(strings.ToLower(strings.TrimSpace(raw))) {
	case OperationTypeUpsert:
		return OperationTypeUpsert, nil
	case OperationTypeDelete:
		return OperationTypeDelete, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOperation, raw)
	}
}

const maxIdentifierLength = 190

var (
	// ErrInvalidAccountID indicates an empty or oversized account identifier.
	ErrInvalidAccountID = errors.New("household: invalid account id")
	// ErrInvalidRecordID indicates an empty or oversized record identifier.
	ErrInvalidRecordID = errors.New("household: invalid record id")
	// ErrInvalidOperation indicates an unknown operation value.
	ErrInvalidOperation = errors.New("household: invalid operation")
)

// AccountID represents a validated household account identifier.
type AccountID string

// NewAccountID validates raw input and returns an AccountID.
func NewAccountID(rawInput string) (AccountID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccountID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidAccountID, maxIdentifierLength)
	}
	return AccountID(trimmed), nil
}

// String returns the underlying string identifier.
func (id AccountID) String() string {
	return string(id)
}

// RecordID represents a validated record identifier.
type RecordID string

// NewRecordID validates raw input and returns a RecordID.
func NewRecordID(rawInput string) (RecordID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRecordID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidRecordID, maxIdentifierLength)
	}
	return RecordID(trimmed), nil
}

// String returns the underlying string identifier.
func (id RecordID) String() string {
	return string(id)
}

// Record models one persisted payload with reconciliation metadata. Deleted
// records stay in place with IsDeleted set so pulling devices learn about
// the deletion instead of resurrecting their stale copies.
type Record struct {
	AccountID        string `gorm:"column:account_id;primaryKey;size:190;not null;index:idx_records_account_type,priority:1"`
	EntityType       string `gorm:"column:entity_type;primaryKey;size:64;not null;index:idx_records_account_type,priority:2"`
	RecordID         string `gorm:"column:record_id;primaryKey;size:190;not null"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null;index:idx_records_account_type,priority:3"`
	PayloadJSON      string `gorm:"column:payload_json;type:text;not null"`
	IsDeleted        bool   `gorm:"column:is_deleted;not null;default:false"`
	Version          int64  `gorm:"column:version;not null;default:1"`
	LastWriterDevice string `gorm:"column:last_writer_device;size:190;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "records"
}

// RecordChange captures an append-only audit trail for record modifications.
type RecordChange struct {
	ChangeID          string        `gorm:"column:change_id;primaryKey;size:190;not null"`
	AccountID         string        `gorm:"column:account_id;not null;index:idx_changes_account_time,priority:1"`
	EntityType        string        `gorm:"column:entity_type;size:64;not null"`
	RecordID          string        `gorm:"column:record_id;not null"`
	AppliedAtSeconds  int64         `gorm:"column:applied_at_s;not null;index:idx_changes_account_time,priority:2"`
	ClientDevice      string        `gorm:"column:client_device;size:190;not null"`
	ClientTimeSeconds int64         `gorm:"column:client_time_s;not null"`
	Operation         OperationType `gorm:"column:op;not null"`
	PayloadJSON       string        `gorm:"column:payload_json;type:text;not null"`
	PreviousVersion   *int64        `gorm:"column:prev_version"`
	NewVersion        *int64        `gorm:"column:new_version"`
}

// TableName provides the explicit table binding for GORM.
func (RecordChange) TableName() string {
	return "record_changes"
}

// Models lists the gorm models the household schema needs.
func Models() []any {
	return []any{&Record{}, &RecordChange{}}
}

// ChangeRequest describes one pushed operation.
type ChangeRequest struct {
	EntityType        string
	RecordID          RecordID
	Operation         OperationType
	ClientDevice      string
	ClientTimeSeconds int64
	CreatedAtSeconds  int64
	UpdatedAtSeconds  int64
	PayloadJSON       string
}

// ConflictOutcome captures the decision from resolveChange. UpdatedRecord is
// always the authoritative server copy after the decision, accepted or not.
type ConflictOutcome struct {
	Accepted      bool
	UpdatedRecord *Record
	AuditRecord   *RecordChange
}
