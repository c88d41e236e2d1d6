package repository

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/allisson/provenance/internal/database"
	apperrors "github.com/allisson/provenance/internal/errors"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// MySQLEventRepository implements event envelope persistence for MySQL databases.
type MySQLEventRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewMySQLEventRepository creates a MySQL repository.
// The storage table is created by migrations, not here.
func NewMySQLEventRepository(db *sql.DB) *MySQLEventRepository {
	return &MySQLEventRepository{db: db}
}

// Upsert inserts or replaces the envelope stored under key.
func (m *MySQLEventRepository) Upsert(ctx context.Context, key string, envelope []byte) error {
	if m.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, m.db)

	query := "INSERT INTO storage (`key`, value) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value)"

	if _, err := querier.ExecContext(ctx, query, key, envelope); err != nil {
		return apperrors.Wrap(err, "failed to upsert event envelope")
	}
	return nil
}

// Get retrieves the envelope stored under key.
// Returns ErrEventNotFound if no entry exists.
func (m *MySQLEventRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, m.db)

	query := "SELECT value FROM storage WHERE `key` = ?"

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
func (m *MySQLEventRepository) Delete(ctx context.Context, key string) error {
	if m.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, "DELETE FROM storage WHERE `key` = ?", key)
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

// Close marks the repository closed. Idempotent.
func (m *MySQLEventRepository) Close() error {
	m.closed.Store(true)
	return nil
}
