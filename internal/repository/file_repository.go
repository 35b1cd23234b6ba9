package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"vaultdrive/internal/domain"
)

// metaColumns is every files column except the payload blob. Listings and
// permission checks must never drag ciphertext out of the database.
const metaColumns = `uuid, name, mime_type, size_bytes, stored_bytes, encrypted, owner_id, status, uploaded_at, updated_at, deleted_at`

type FileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, nil)
}

// Create inserts the file row with its payload inside the caller's
// transaction, so the quota reservation commits or rolls back with it.
func (r *FileRepository) Create(ctx context.Context, tx *sqlx.Tx, file *domain.File, payload []byte) error {
	query := `
        INSERT INTO files (uuid, name, mime_type, size_bytes, stored_bytes, encrypted, owner_id, status, payload)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING uploaded_at, updated_at`

	err := tx.QueryRowContext(
		ctx,
		query,
		file.UUID,
		file.Name,
		file.MIMEType,
		file.SizeBytes,
		file.StoredBytes,
		file.Encrypted,
		file.OwnerID,
		file.Status,
		payload,
	).Scan(&file.UploadedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	return nil
}

func (r *FileRepository) GetByUUID(ctx context.Context, fileUUID uuid.UUID) (*domain.File, error) {
	var file domain.File
	query := `SELECT ` + metaColumns + ` FROM files WHERE uuid = $1`

	err := r.db.GetContext(ctx, &file, query, fileUUID)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}

	return &file, nil
}

// LockStoredBytes reads the stored payload length inside the caller's
// transaction, taking the row lock. Ledger deltas must be computed from this
// value, not from a snapshot read before the transaction opened, or a
// concurrent replace and purge can double-count the same bytes.
func (r *FileRepository) LockStoredBytes(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) (int64, error) {
	var stored int64
	query := `SELECT stored_bytes FROM files WHERE uuid = $1 FOR UPDATE`

	err := tx.QueryRowContext(ctx, query, fileUUID).Scan(&stored)
	if err == sql.ErrNoRows {
		return 0, domain.ErrFileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock file row: %w", err)
	}

	return stored, nil
}

func (r *FileRepository) GetPayload(ctx context.Context, fileUUID uuid.UUID) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM files WHERE uuid = $1`

	err := r.db.QueryRowContext(ctx, query, fileUUID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file payload: %w", err)
	}

	return payload, nil
}

// UpdateContent replaces the payload in place and bumps updated_at. Runs in
// the caller's transaction next to the quota delta.
func (r *FileRepository) UpdateContent(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID, payload []byte, sizeBytes, storedBytes int64) error {
	query := `
        UPDATE files
        SET payload = $1,
            size_bytes = $2,
            stored_bytes = $3,
            updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $4`

	result, err := tx.ExecContext(ctx, query, payload, sizeBytes, storedBytes, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to update file content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrFileNotFound
	}

	return nil
}

// SetStatus flips a file between active and bin, keeping deleted_at in sync
// with the status.
func (r *FileRepository) SetStatus(ctx context.Context, fileUUID uuid.UUID, status domain.FileStatus) error {
	query := `
        UPDATE files
        SET status = $1,
            deleted_at = CASE WHEN $1 = 'bin' THEN CURRENT_TIMESTAMP ELSE NULL END,
            updated_at = CURRENT_TIMESTAMP
        WHERE uuid = $2`

	result, err := r.db.ExecContext(ctx, query, status, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrFileNotFound
	}

	return nil
}

// Delete removes the file row permanently. Shares go with it via cascade.
func (r *FileRepository) Delete(ctx context.Context, tx *sqlx.Tx, fileUUID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM files WHERE uuid = $1`, fileUUID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrFileNotFound
	}

	return nil
}

// ListActive returns the active files a user can see: their own plus the
// ones shared to them. Search filters by name, case-insensitive.
func (r *FileRepository) ListActive(ctx context.Context, userID uuid.UUID, search string) ([]domain.File, error) {
	query := `
        SELECT ` + metaColumns + ` FROM files f
        WHERE f.status = 'active'
        AND (f.owner_id = $1 OR EXISTS (
            SELECT 1 FROM file_shares fs WHERE fs.file_uuid = f.uuid AND fs.user_id = $1
        ))`

	args := []interface{}{userID}
	if search != "" {
		query += ` AND f.name ILIKE '%' || $2 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY f.uploaded_at DESC`

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active files: %w", err)
	}

	return files, nil
}

// ListBin returns binned files the user still has rights on (owned or shared).
func (r *FileRepository) ListBin(ctx context.Context, userID uuid.UUID) ([]domain.File, error) {
	query := `
        SELECT ` + metaColumns + ` FROM files f
        WHERE f.status = 'bin'
        AND (f.owner_id = $1 OR EXISTS (
            SELECT 1 FROM file_shares fs WHERE fs.file_uuid = f.uuid AND fs.user_id = $1
        ))
        ORDER BY f.deleted_at DESC`

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list bin files: %w", err)
	}

	return files, nil
}

// ListBinOwnedBefore returns binned files a user owns, optionally only those
// deleted before the cutoff. A zero cutoff means everything in the bin.
func (r *FileRepository) ListBinOwnedBefore(ctx context.Context, ownerID uuid.UUID, cutoff time.Time) ([]domain.File, error) {
	query := `
        SELECT ` + metaColumns + ` FROM files
        WHERE status = 'bin' AND owner_id = $1`

	args := []interface{}{ownerID}
	if !cutoff.IsZero() {
		query += ` AND deleted_at < $2`
		args = append(args, cutoff)
	}

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list binned files: %w", err)
	}

	return files, nil
}

// ListExpiredBin returns binned files of every user whose retention ran out.
func (r *FileRepository) ListExpiredBin(ctx context.Context, cutoff time.Time) ([]domain.File, error) {
	query := `
        SELECT ` + metaColumns + ` FROM files
        WHERE status = 'bin' AND deleted_at < $1`

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list expired bin files: %w", err)
	}

	return files, nil
}

func (r *FileRepository) ListSharedByMe(ctx context.Context, ownerID uuid.UUID) ([]domain.File, error) {
	query := `
        SELECT DISTINCT ` + metaColumns + ` FROM files f
        JOIN file_shares fs ON fs.file_uuid = f.uuid
        WHERE f.owner_id = $1 AND f.status = 'active'
        ORDER BY f.uploaded_at DESC`

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list files shared by user: %w", err)
	}

	return files, nil
}

func (r *FileRepository) ListSharedToMe(ctx context.Context, userID uuid.UUID) ([]domain.File, error) {
	query := `
        SELECT ` + metaColumns + ` FROM files f
        JOIN file_shares fs ON fs.file_uuid = f.uuid
        WHERE fs.user_id = $1 AND f.status = 'active'
        ORDER BY fs.created_at DESC`

	var files []domain.File
	if err := r.db.SelectContext(ctx, &files, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list files shared to user: %w", err)
	}

	return files, nil
}

// AddShare appends a recipient to the file's share set. The primary key on
// (file_uuid, user_id) backstops concurrent duplicate shares.
func (r *FileRepository) AddShare(ctx context.Context, fileUUID, userID uuid.UUID) error {
	query := `INSERT INTO file_shares (file_uuid, user_id) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, fileUUID, userID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrAlreadyShared
	}
	if err != nil {
		return fmt.Errorf("failed to add share: %w", err)
	}

	return nil
}

func (r *FileRepository) IsSharedWith(ctx context.Context, fileUUID, userID uuid.UUID) (bool, error) {
	var shared bool
	query := `SELECT EXISTS (SELECT 1 FROM file_shares WHERE file_uuid = $1 AND user_id = $2)`

	if err := r.db.GetContext(ctx, &shared, query, fileUUID, userID); err != nil {
		return false, fmt.Errorf("failed to check share: %w", err)
	}

	return shared, nil
}

// GetShareeEmails returns the emails of everyone the file is shared with,
// for display next to the file in listings.
func (r *FileRepository) GetShareeEmails(ctx context.Context, fileUUID uuid.UUID) ([]string, error) {
	query := `
        SELECT u.email FROM file_shares fs
        JOIN users u ON u.id = fs.user_id
        WHERE fs.file_uuid = $1
        ORDER BY u.email`

	var emails []string
	if err := r.db.SelectContext(ctx, &emails, query, fileUUID); err != nil {
		return nil, fmt.Errorf("failed to get sharees: %w", err)
	}

	return emails, nil
}
