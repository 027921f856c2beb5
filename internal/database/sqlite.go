package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rosehollow/cookbook/backend/internal/admin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes the local SQLite connection holding the durable
// admin-session marker and performs schema migration.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
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

	if err := db.AutoMigrate(&admin.SessionMarker{}); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("session database initialized", zap.String("path", path))
	}

	return db, nil
}
