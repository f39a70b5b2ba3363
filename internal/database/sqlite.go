// Package database opens the SQLite stores and keeps their schemas current.
// The server and the device mirror share the open path but migrate different
// model sets.
package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kindredhq/hearth/internal/household"
	"github.com/kindredhq/hearth/internal/mirror"
)

// OpenServerSQLite establishes the household server database and performs
// schema migrations.
func OpenServerSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	models := append(household.Models(), &migrationRecord{})
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, serverMigrations(), logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("server database initialized", zap.String("path", path))
	}

	return db, nil
}

// OpenMirrorSQLite establishes the device-local mirror database and performs
// schema migrations.
func OpenMirrorSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}

	models := append(mirror.Models(), &migrationRecord{})
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, mirrorMigrations(), logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("mirror database initialized", zap.String("path", path))
	}

	return db, nil
}

func open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
