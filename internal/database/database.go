// Package database provides database connection management and utilities.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/allisson/provenance/internal/errors"
)

// Config holds database configuration settings.
type Config struct {
	Driver             string
	Path               string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect establishes a database connection with the given configuration.
// Failures to open or reach the backing store are reported as ErrUnavailable so
// callers can distinguish "storage unavailable" from query-level errors.
func Connect(cfg Config) (*sql.DB, error) {
	dsn := cfg.ConnectionString
	if cfg.Driver == "sqlite3" {
		dsn = sqliteDSN(cfg.Path)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("failed to open database: %v", err))
	}

	if cfg.Driver == "sqlite3" {
		// SQLite allows a single writer; a larger pool only produces
		// SQLITE_BUSY errors under concurrent upserts.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConnections)
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, fmt.Sprintf("failed to ping database: %v", err))
	}

	return db, nil
}

// sqliteDSN builds a DSN enabling WAL mode, a busy timeout and foreign keys.
// Read concurrency during writes depends on WAL; the busy timeout absorbs
// short lock contention between the pipeline and replication jobs.
func sqliteDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_foreign_keys=on",
		path,
	)
}
