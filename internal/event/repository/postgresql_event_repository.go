package repository

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/allisson/provenance/internal/database"
	apperrors "github.com/allisson/provenance/internal/errors"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// PostgreSQLEventRepository implements event envelope persistence for PostgreSQL databases.
type PostgreSQLEventRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewPostgreSQLEventRepository creates a PostgreSQL repository.
// The storage table is created by migrations, not here.
func NewPostgreSQLEventRepository(db *sql.DB) *PostgreSQLEventRepository {
	return &PostgreSQLEventRepository{db: db}
}

// Upsert inserts or replaces the envelope stored under key.
func (p *PostgreSQLEventRepository) Upsert(ctx context.Context, key string, envelope []byte) error {
	if p.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO storage (key, value) VALUES ($1, $2)
			  ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	if _, err := querier.ExecContext(ctx, query, key, envelope); err != nil {
		return apperrors.Wrap(err, "failed to upsert event envelope")
	}
	return nil
}

// Get retrieves the envelope stored under key.
// Returns ErrEventNotFound if no entry exists.
func (p *PostgreSQLEventRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if p.closed.Load() {
		return nil, eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, p.db)

	query := `SELECT value FROM storage WHERE key = $1`

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
func (p *PostgreSQLEventRepository) Delete(ctx context.Context, key string) error {
	if p.closed.Load() {
		return eventDomain.ErrStoreClosed
	}

	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM storage WHERE key = $1`, key)
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
func (p *PostgreSQLEventRepository) Close() error {
	p.closed.Store(true)
	return nil
}
