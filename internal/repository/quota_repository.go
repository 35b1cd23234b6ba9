package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vaultdrive/internal/domain"
)

// QuotaRepository maintains the per-user storage counters that live on the
// users row itself, so the ledger and the registry commit in one transaction.
type QuotaRepository struct {
	db *sqlx.DB
}

func NewQuotaRepository(db *sqlx.DB) *QuotaRepository {
	return &QuotaRepository{db: db}
}

func (r *QuotaRepository) GetUsage(ctx context.Context, ownerID uuid.UUID) (used, limit int64, err error) {
	query := `SELECT storage_used, storage_limit FROM users WHERE id = $1`

	err = r.db.QueryRowContext(ctx, query, ownerID).Scan(&used, &limit)
	if err == sql.ErrNoRows {
		return 0, 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get storage usage: %w", err)
	}

	return used, limit, nil
}

// Reserve atomically checks and applies a usage delta inside the caller's
// transaction. The condition lives in the UPDATE itself, so two racing
// reservations cannot both pass a stale check. Delta may be negative for
// shrinking writes.
func (r *QuotaRepository) Reserve(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, delta int64) error {
	query := `
        UPDATE users
        SET storage_used = GREATEST(0, storage_used + $1)
        WHERE id = $2 AND storage_used + $1 <= storage_limit`

	result, err := tx.ExecContext(ctx, query, delta, ownerID)
	if err != nil {
		return fmt.Errorf("failed to reserve storage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		used, limit, err := r.GetUsage(ctx, ownerID)
		if err != nil {
			return err
		}
		return &domain.QuotaExceededError{UsedBytes: used, LimitBytes: limit}
	}

	return nil
}

// Release credits bytes back to the owner, clamped at zero so a double
// release can never drive the counter negative.
func (r *QuotaRepository) Release(ctx context.Context, tx *sqlx.Tx, ownerID uuid.UUID, bytes int64) error {
	query := `
        UPDATE users
        SET storage_used = GREATEST(0, storage_used - $1)
        WHERE id = $2`

	result, err := tx.ExecContext(ctx, query, bytes, ownerID)
	if err != nil {
		return fmt.Errorf("failed to release storage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
