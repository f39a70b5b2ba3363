package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillRecordCreatedAt  = "2026-07-18_backfill_record_created_at"
	migrationPurgeAckedMirrorDeletion = "2026-07-18_purge_acked_mirror_deletions"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func serverMigrations() []migrationDefinition {
	return []migrationDefinition{
		{name: migrationBackfillRecordCreatedAt, apply: backfillRecordCreatedAt},
	}
}

func mirrorMigrations() []migrationDefinition {
	return []migrationDefinition{
		{name: migrationPurgeAckedMirrorDeletion, apply: purgeAckedMirrorDeletions},
	}
}

func applyMigrations(db *gorm.DB, migrations []migrationDefinition, logger *zap.Logger) error {
	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows written before created_at_s existed carry a zero there; treat the last
// update as the creation instant.
func backfillRecordCreatedAt(db *gorm.DB) error {
	return db.Exec("UPDATE records SET created_at_s = updated_at_s WHERE created_at_s = 0").Error
}

// Acknowledged deletions are hard-deleted on acknowledgement now; clear any
// rows an older build left behind in both states.
func purgeAckedMirrorDeletions(db *gorm.DB) error {
	return db.Exec("DELETE FROM mirror_records WHERE locally_deleted = true AND is_synced = true").Error
}
