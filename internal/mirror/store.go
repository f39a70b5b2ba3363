package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kindredhq/hearth/internal/wire"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errRecordMissing   = errors.New("record does not exist")
	noOpLogger         = zap.NewNop()
)

// StoreError wraps a mirror failure with a dotted operation.reason code.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

func (e *StoreError) Code() string {
	return e.code
}

const (
	opStoreNew        = "mirror.store.new"
	opSaveLocal       = "mirror.save_local"
	opDeleteLocal     = "mirror.delete_local"
	opGet             = "mirror.get"
	opListActive      = "mirror.list_active"
	opPendingPush     = "mirror.pending_push"
	opApplyRemote     = "mirror.apply_remote"
	opAcknowledgePush = "mirror.acknowledge_push"
	opPurgeRemote     = "mirror.purge_remote"
)

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &StoreError{code: code, err: cause}
}

// storedRecord is the gorm row shape of a Record.
type storedRecord struct {
	EntityType       string `gorm:"column:entity_type;primaryKey;size:64;not null"`
	RecordID         string `gorm:"column:record_id;primaryKey;size:190;not null"`
	AccountID        string `gorm:"column:account_id;size:190;not null"`
	PayloadJSON      string `gorm:"column:payload_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null;index:idx_mirror_dirty,priority:2"`
	IsSynced         bool   `gorm:"column:is_synced;not null;default:false;index:idx_mirror_dirty,priority:1"`
	LocallyDeleted   bool   `gorm:"column:locally_deleted;not null;default:false"`
}

// TableName provides the explicit table binding for GORM.
func (storedRecord) TableName() string {
	return "mirror_records"
}

// Models lists the gorm models the mirror schema needs.
func Models() []any {
	return []any{&storedRecord{}}
}

type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Store persists sync envelopes on the device.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, newStoreError(opStoreNew, "missing_database", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{db: cfg.Database, clock: clock, logger: logger}, nil
}

// SaveLocal upserts a locally edited record. The envelope is stamped with the
// current clock and marked unsynced so the next push pass picks it up.
func (s *Store) SaveLocal(ctx context.Context, record Record) (Record, error) {
	record.UpdatedAtSeconds = s.clock().UTC().Unix()
	record.IsSynced = false
	record.LocallyDeleted = false

	if err := s.db.WithContext(ctx).Save(toStored(record)).Error; err != nil {
		s.logError(opSaveLocal, "save_failed", err, record)
		return Record{}, newStoreError(opSaveLocal, "save_failed", err)
	}
	return record, nil
}

// DeleteLocal tombstones a record. The row stays in place, hidden from reads
// and carried in the push set, until the server acknowledges the deletion.
func (s *Store) DeleteLocal(ctx context.Context, entityType wire.EntityType, recordID string) error {
	result := s.db.WithContext(ctx).Model(&storedRecord{}).
		Where("entity_type = ? AND record_id = ?", string(entityType), recordID).
		Updates(map[string]any{
			"locally_deleted": true,
			"is_synced":       false,
			"updated_at_s":    s.clock().UTC().Unix(),
		})
	if result.Error != nil {
		s.logError(opDeleteLocal, "update_failed", result.Error, Record{EntityType: entityType, ID: recordID})
		return newStoreError(opDeleteLocal, "update_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newStoreError(opDeleteLocal, "record_missing", fmt.Errorf("%w: %s/%s", errRecordMissing, entityType, recordID))
	}
	return nil
}

// Get loads one record regardless of tombstone state.
func (s *Store) Get(ctx context.Context, entityType wire.EntityType, recordID string) (Record, bool, error) {
	var row storedRecord
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND record_id = ?", string(entityType), recordID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		s.logError(opGet, "query_failed", err, Record{EntityType: entityType, ID: recordID})
		return Record{}, false, newStoreError(opGet, "query_failed", err)
	}
	return fromStored(row), true, nil
}

// ListActive returns every non-tombstoned record of one collection.
func (s *Store) ListActive(ctx context.Context, entityType wire.EntityType) ([]Record, error) {
	var rows []storedRecord
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND locally_deleted = ?", string(entityType), false).
		Order("record_id ASC").
		Find(&rows).Error; err != nil {
		s.logError(opListActive, "query_failed", err, Record{EntityType: entityType})
		return nil, newStoreError(opListActive, "query_failed", err)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromStored(row))
	}
	return records, nil
}

// PendingPush returns the outstanding push set for one collection, oldest
// edit first so pushes replay in the order the user made them.
func (s *Store) PendingPush(ctx context.Context, entityType wire.EntityType) ([]Record, error) {
	var rows []storedRecord
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND (is_synced = ? OR locally_deleted = ?)", string(entityType), false, true).
		Order("updated_at_s ASC").
		Find(&rows).Error; err != nil {
		s.logError(opPendingPush, "query_failed", err, Record{EntityType: entityType})
		return nil, newStoreError(opPendingPush, "query_failed", err)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromStored(row))
	}
	return records, nil
}

// ApplyRemote merges pulled records into the mirror inside one transaction.
// Local tombstones survive; everything else takes the remote copy verbatim
// and becomes synced.
func (s *Store) ApplyRemote(ctx context.Context, remotes []Record) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, remote := range remotes {
			var existing storedRecord
			var localPtr *Record
			err := tx.Where("entity_type = ? AND record_id = ?", string(remote.EntityType), remote.ID).
				Take(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				localPtr = nil
			} else if err != nil {
				return newStoreError(opApplyRemote, "select_failed", err)
			} else {
				local := fromStored(existing)
				localPtr = &local
			}

			merged := MergeFromRemote(localPtr, remote)
			if err := tx.Save(toStored(merged)).Error; err != nil {
				return newStoreError(opApplyRemote, "save_failed", err)
			}
		}
		return nil
	})
	if txErr != nil {
		s.logError(opApplyRemote, "transaction_failed", txErr, Record{})
	}
	return txErr
}

// AcknowledgePush records that the server accepted the pushed envelopes.
// Acknowledged tombstones are removed for good; live records flip to synced
// unless an edit landed while the push was in flight.
func (s *Store) AcknowledgePush(ctx context.Context, pushed []Record) error {
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range pushed {
			if record.LocallyDeleted {
				if err := tx.
					Where("entity_type = ? AND record_id = ?", string(record.EntityType), record.ID).
					Delete(&storedRecord{}).Error; err != nil {
					return newStoreError(opAcknowledgePush, "tombstone_delete_failed", err)
				}
				continue
			}
			if err := tx.Model(&storedRecord{}).
				Where("entity_type = ? AND record_id = ? AND updated_at_s = ?",
					string(record.EntityType), record.ID, record.UpdatedAtSeconds).
				Update("is_synced", true).Error; err != nil {
				return newStoreError(opAcknowledgePush, "mark_synced_failed", err)
			}
		}
		return nil
	})
	if txErr != nil {
		s.logError(opAcknowledgePush, "transaction_failed", txErr, Record{})
	}
	return txErr
}

// PurgeRemote removes a record the server reports as deleted. Purging is
// idempotent; a missing row is not an error.
func (s *Store) PurgeRemote(ctx context.Context, entityType wire.EntityType, recordID string) error {
	if err := s.db.WithContext(ctx).
		Where("entity_type = ? AND record_id = ?", string(entityType), recordID).
		Delete(&storedRecord{}).Error; err != nil {
		s.logError(opPurgeRemote, "delete_failed", err, Record{EntityType: entityType, ID: recordID})
		return newStoreError(opPurgeRemote, "delete_failed", err)
	}
	return nil
}

func toStored(record Record) *storedRecord {
	return &storedRecord{
		EntityType:       string(record.EntityType),
		RecordID:         record.ID,
		AccountID:        record.AccountID,
		PayloadJSON:      record.PayloadJSON,
		UpdatedAtSeconds: record.UpdatedAtSeconds,
		IsSynced:         record.IsSynced,
		LocallyDeleted:   record.LocallyDeleted,
	}
}

func fromStored(row storedRecord) Record {
	return Record{
		EntityType:       wire.EntityType(row.EntityType),
		ID:               row.RecordID,
		AccountID:        row.AccountID,
		PayloadJSON:      row.PayloadJSON,
		UpdatedAtSeconds: row.UpdatedAtSeconds,
		IsSynced:         row.IsSynced,
		LocallyDeleted:   row.LocallyDeleted,
	}
}

func (s *Store) logError(operation, reason string, err error, record Record) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if record.EntityType != "" {
		fields = append(fields, zap.String("entity_type", string(record.EntityType)))
	}
	if record.ID != "" {
		fields = append(fields, zap.String("record_id", record.ID))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Error("mirror store error", fields...)
}
