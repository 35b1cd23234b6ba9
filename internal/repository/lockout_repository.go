package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LockoutRepository persists login failure counters so lockout state
// survives restarts and is shared across instances, instead of living in an
// in-process map.
type LockoutRepository struct {
	db *sqlx.DB
}

func NewLockoutRepository(db *sqlx.DB) *LockoutRepository {
	return &LockoutRepository{db: db}
}

// IsLocked reports whether the key is currently locked out.
func (r *LockoutRepository) IsLocked(ctx context.Context, key string) (bool, error) {
	var lockedUntil sql.NullTime
	query := `SELECT locked_until FROM login_attempts WHERE attempt_key = $1`

	err := r.db.QueryRowContext(ctx, query, key).Scan(&lockedUntil)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check lockout: %w", err)
	}

	return lockedUntil.Valid && lockedUntil.Time.After(time.Now()), nil
}

// RecordFailure bumps the counter atomically and arms the lock once the
// threshold is crossed. Counters older than the window restart from one.
func (r *LockoutRepository) RecordFailure(ctx context.Context, key string, threshold int, window, lockFor time.Duration) error {
	query := `
        INSERT INTO login_attempts (attempt_key, failures, updated_at)
        VALUES ($1, 1, CURRENT_TIMESTAMP)
        ON CONFLICT (attempt_key) DO UPDATE
        SET failures = CASE
                WHEN login_attempts.updated_at < CURRENT_TIMESTAMP - make_interval(secs => $3) THEN 1
                ELSE login_attempts.failures + 1
            END,
            locked_until = CASE
                WHEN (CASE
                    WHEN login_attempts.updated_at < CURRENT_TIMESTAMP - make_interval(secs => $3) THEN 1
                    ELSE login_attempts.failures + 1
                END) >= $2 THEN CURRENT_TIMESTAMP + make_interval(secs => $4)
                ELSE login_attempts.locked_until
            END,
            updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query, key, threshold,
		window.Seconds(), lockFor.Seconds())
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	return nil
}

// Reset clears the counter after a successful login.
func (r *LockoutRepository) Reset(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE attempt_key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
