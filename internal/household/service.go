package household

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindredhq/hearth/internal/wire"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingAccountID  = errors.New("account identifier is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError wraps a household failure with a dotted operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "household.service.new"
	opApplyChanges = "household.apply_changes"
	opSnapshot     = "household.snapshot"
	opListChanges  = "household.list_changes"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider supplies identifiers for audit rows.
type IDProvider interface {
	NewID() (string, error)
}

type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service reconciles pushed changes and serves authoritative snapshots.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

type ChangeOutcome struct {
	Request ChangeRequest
	Outcome ConflictOutcome
}

type SyncResult struct {
	ChangeOutcomes []ChangeOutcome
}

// ApplyChanges reconciles a batch of pushed operations inside one
// transaction. Each record row is locked, resolved with last-write-wins, and
// accepted changes append an audit row.
func (s *Service) ApplyChanges(ctx context.Context, accountID AccountID, changes []ChangeRequest) (SyncResult, error) {
	if accountID == "" {
		s.logError(opApplyChanges, "missing_account_id", errMissingAccountID)
		return SyncResult{}, newServiceError(opApplyChanges, "missing_account_id", errMissingAccountID)
	}

	result := SyncResult{ChangeOutcomes: make([]ChangeOutcome, 0, len(changes))}
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, change := range changes {
			if _, err := wire.ParseEntityType(change.EntityType); err != nil {
				s.logError(opApplyChanges, "invalid_entity_type", err,
					zap.String("account_id", accountID.String()),
					zap.String("entity_type", change.EntityType))
				return newServiceError(opApplyChanges, "invalid_entity_type", err)
			}

			var existing Record
			var existingPtr *Record
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("account_id = ? AND entity_type = ? AND record_id = ?",
					accountID.String(), change.EntityType, change.RecordID.String()).
				Take(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				existingPtr = nil
			} else if err != nil {
				s.logError(opApplyChanges, "record_select_failed", err,
					zap.String("account_id", accountID.String()),
					zap.String("record_id", change.RecordID.String()))
				return newServiceError(opApplyChanges, "record_select_failed", err)
			} else {
				existingPtr = &existing
			}

			appliedAt := s.clock().UTC()
			outcome := resolveChange(existingPtr, accountID, change, appliedAt)

			if outcome.Accepted {
				if err := tx.Save(outcome.UpdatedRecord).Error; err != nil {
					s.logError(opApplyChanges, "record_save_failed", err,
						zap.String("account_id", accountID.String()),
						zap.String("record_id", change.RecordID.String()))
					return newServiceError(opApplyChanges, "record_save_failed", err)
				}

				changeID, err := s.idProvider.NewID()
				if err != nil {
					s.logError(opApplyChanges, "id_generation_failed", err,
						zap.String("account_id", accountID.String()),
						zap.String("record_id", change.RecordID.String()))
					return newServiceError(opApplyChanges, "id_generation_failed", err)
				}
				outcome.AuditRecord.ChangeID = changeID
				if err := tx.Create(outcome.AuditRecord).Error; err != nil {
					s.logError(opApplyChanges, "audit_insert_failed", err,
						zap.String("account_id", accountID.String()),
						zap.String("record_id", change.RecordID.String()))
					return newServiceError(opApplyChanges, "audit_insert_failed", err)
				}
			}

			result.ChangeOutcomes = append(result.ChangeOutcomes, ChangeOutcome{
				Request: change,
				Outcome: outcome,
			})
		}
		return nil
	})
	if txErr != nil {
		return SyncResult{}, txErr
	}
	return result, nil
}

// Snapshot returns every record of one collection for the account, deleted
// ones included, ordered by update time. Pulling devices use the deletion
// markers to drop their stale copies.
func (s *Service) Snapshot(ctx context.Context, accountID AccountID, entityType wire.EntityType) ([]Record, error) {
	if accountID == "" {
		s.logError(opSnapshot, "missing_account_id", errMissingAccountID)
		return nil, newServiceError(opSnapshot, "missing_account_id", errMissingAccountID)
	}

	var records []Record
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND entity_type = ?", accountID.String(), string(entityType)).
		Order("updated_at_s ASC").
		Find(&records).Error; err != nil {
		s.logError(opSnapshot, "query_failed", err,
			zap.String("account_id", accountID.String()),
			zap.String("entity_type", string(entityType)))
		return nil, newServiceError(opSnapshot, "query_failed", err)
	}
	return records, nil
}

// ListChanges returns the audit trail for the account since the given unix
// second, newest first.
func (s *Service) ListChanges(ctx context.Context, accountID AccountID, sinceSeconds int64) ([]RecordChange, error) {
	if accountID == "" {
		s.logError(opListChanges, "missing_account_id", errMissingAccountID)
		return nil, newServiceError(opListChanges, "missing_account_id", errMissingAccountID)
	}

	var changes []RecordChange
	if err := s.db.WithContext(ctx).
		Where("account_id = ? AND applied_at_s >= ?", accountID.String(), sinceSeconds).
		Order("applied_at_s DESC").
		Find(&changes).Error; err != nil {
		s.logError(opListChanges, "query_failed", err, zap.String("account_id", accountID.String()))
		return nil, newServiceError(opListChanges, "query_failed", err)
	}
	return changes, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("household service error", attrs...)
}
