// Package repository implements durable key→envelope persistence for provenance
// events. Repositories support SQLite (local single-node store), PostgreSQL and
// MySQL, all over the same storage table: (key TEXT PRIMARY KEY, value BLOB).
// Values are opaque sealed envelopes; the store has no knowledge of plaintext.
package repository

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/allisson/provenance/internal/database"
	apperrors "github.com/allisson/provenance/internal/errors"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// sqliteSchema bootstraps the storage table. Applied on open; idempotent.
const sqliteSchema = `CREATE TABLE IF NOT EXISTS storage (key TEXT PRIMARY KEY, value BLOB NOT NULL)`

// SQLiteEventRepository implements event envelope persistence for SQLite databases.
//
// SQLite is the primary local store: the connection pool is limited to a single
// writer (see database.Connect) so concurrent upserts to the same key serialize
// instead of failing with SQLITE_BUSY, and WAL mode keeps reads concurrent.
type SQLiteEventRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewSQLiteEventRepository creates a SQLite repository and initializes its schema.
// Returns ErrUnavailable if schema initialization fails.
func NewSQLiteEventRepository(db *sql.DB) (*SQLiteEventRepository, error) {
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "failed to initialize storage schema: "+err.Error())
	}
	return &SQLiteEventRepository{db: db}, nil
}

// Upsert inserts or replaces the envelope stored under key.
// The single-statement upsert is atomic with respect to concurrent Gets:
// readers observe either the previous value or the new one, never a torn write.
func (s *SQLiteEventRepository) Upsert(ctx context.Context, key string, envelope []byte) error {
	if s.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, s.db)

	query := `INSERT INTO storage (key, value) VALUES (?, ?)
			  ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := querier.ExecContext(ctx, query, key, envelope); err != nil {
		return apperrors.Wrap(err, "failed to upsert event envelope")
	}
	return nil
}

// Get retrieves the envelope stored under key.
// Returns ErrEventNotFound if no entry exists.
func (s *SQLiteEventRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, s.db)

	query := `SELECT value FROM storage WHERE key = ?`

	var envelope []byte
	err := querier.QueryRowContext(ctx, query, key).Scan(&envelope)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, eventDomain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get event envelope")
	}

	return envelope, nil
}

// Delete removes the envelope stored under key.
// Returns ErrEventNotFound if no entry exists.
func (s *SQLiteEventRepository) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, key)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete event envelope")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read delete result")
	}
	if affected == 0 {
		return eventDomain.ErrEventNotFound
	}
	return nil
}

// Close marks the repository closed. Idempotent: closing twice is not an error.
// Subsequent operations fail with ErrStoreClosed. The underlying connection
// pool is owned and closed by the application container.
func (s *SQLiteEventRepository) Close() error {
	s.closed.Store(true)
	return nil
}
