// Package database manages the sqlite file that backs the visit ledger.
package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pageflow/internal/config"
	"pageflow/internal/events"
)

// DBManager owns the gorm connection to the durable store.
type DBManager struct {
	path         string
	maxOpenConns int
	logger       *slog.Logger
	db           *gorm.DB
}

// NewDBManager creates a database manager for the configured sqlite file.
func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{
		path:         cfg.GetDatabasePath(),
		maxOpenConns: cfg.GetMaxOpenConns(),
		logger:       logger,
	}
}

// Path returns the sqlite file path.
func (dm *DBManager) Path() string {
	return dm.path
}

// Init opens the connection and migrates the schema.
func (dm *DBManager) Init() error {
	if dm.path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dm.path), 0o755); err != nil {
			return fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dm.dsn()), &gorm.Config{
		Logger: gormlogger.NewSlogLogger(dm.logger, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(dm.maxOpenConns)
	sqlDB.SetMaxIdleConns(dm.maxOpenConns)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	dm.db = db
	return dm.MigrateDatabase()
}

func (dm *DBManager) dsn() string {
	if dm.path == ":memory:" {
		return "file::memory:?cache=shared"
	}
	return dm.path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

// MigrateDatabase creates or updates the visits table.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(&events.Event{})
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	dm.logger.Debug("Database migration completed successfully")
	return nil
}

// GetConnection returns the gorm handle, or nil before Init.
func (dm *DBManager) GetConnection() *gorm.DB {
	return dm.db
}

// Close releases the connection.
func (dm *DBManager) Close() error {
	if dm.db == nil {
		return nil
	}
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}
	dm.db = nil
	return sqlDB.Close()
}

// Quarantine closes the connection and moves the sqlite file (and its WAL companions)
// aside so a fresh store can be created in its place. It returns the new file path.
func (dm *DBManager) Quarantine() (string, error) {
	if err := dm.Close(); err != nil {
		dm.logger.Warn("Failed to close database before quarantine", slog.Any("error", err))
	}

	if dm.path == ":memory:" {
		return "", nil
	}

	target := fmt.Sprintf("%s.corrupt-%d", dm.path, time.Now().Unix())
	if err := os.Rename(dm.path, target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("move corrupt database aside: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Rename(dm.path+suffix, target+suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			dm.logger.Warn("Failed to move database companion file",
				slog.String("file", dm.path+suffix), slog.Any("error", err))
		}
	}
	return target, nil
}
