package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vaultdrive/internal/domain"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
        INSERT INTO audit_log (user_id, action, details)
        VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, entry.UserID, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}
