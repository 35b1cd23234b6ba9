package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaultdrive/internal/crypto"
	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

// ErrFileTooLarge rejects uploads above the configured ceiling before any
// quota or crypto work happens.
var ErrFileTooLarge = errors.New("file size exceeds maximum allowed size")

// FileService owns the file lifecycle: upload, download, in-place edit,
// bin, restore and purge. Every mutating operation commits its registry
// write and its quota delta in one transaction.
type FileService struct {
	fileRepo    *repository.FileRepository
	quotaRepo   *repository.QuotaRepository
	permissions *PermissionService
	codec       *crypto.Codec
	audit       *AuditService

	allowedExts    map[string]bool
	maxUploadBytes int64
}

func NewFileService(
	fileRepo *repository.FileRepository,
	quotaRepo *repository.QuotaRepository,
	permissions *PermissionService,
	codec *crypto.Codec,
	audit *AuditService,
	allowedExts map[string]bool,
	maxUploadBytes int64,
) *FileService {
	return &FileService{
		fileRepo:       fileRepo,
		quotaRepo:      quotaRepo,
		permissions:    permissions,
		codec:          codec,
		audit:          audit,
		allowedExts:    allowedExts,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload validates, encrypts and persists a new file owned by the caller.
// The quota reservation covers the ciphertext length actually stored; the
// file's reported size stays the plaintext length.
func (s *FileService) Upload(ctx context.Context, userID uuid.UUID, name, mimeType string, data []byte) (*domain.FileMeta, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyFile
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: max size is %d bytes", ErrFileTooLarge, s.maxUploadBytes)
	}
	if !s.typeAllowed(name, mimeType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, name)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	ciphertext, err := s.codec.Encrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt payload: %w", err)
	}

	file := &domain.File{
		UUID:        uuid.New(),
		Name:        filepath.Base(name),
		MIMEType:    mimeType,
		SizeBytes:   int64(len(data)),
		StoredBytes: int64(len(ciphertext)),
		Encrypted:   true,
		OwnerID:     userID,
		Status:      domain.FileStatusActive,
	}

	tx, err := s.fileRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.quotaRepo.Reserve(ctx, tx, userID, file.StoredBytes); err != nil {
		return nil, err
	}

	if err := s.fileRepo.Create(ctx, tx, file, ciphertext); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.RecordAction(userID, domain.ActionUpload, file.Name)

	meta := s.toMeta(file, nil)
	return &meta, nil
}

// Download returns the decrypted payload for anyone holding view rights.
func (s *FileService) Download(ctx context.Context, userID, fileUUID uuid.UUID) (*domain.FileDownload, error) {
	return s.fetch(ctx, userID, fileUUID, domain.ActionDownload)
}

// View is the inline rendition of Download: same payload, same rights,
// audited as a view.
func (s *FileService) View(ctx context.Context, userID, fileUUID uuid.UUID) (*domain.FileDownload, error) {
	return s.fetch(ctx, userID, fileUUID, domain.ActionView)
}

func (s *FileService) fetch(ctx context.Context, userID, fileUUID uuid.UUID, action domain.AuditAction) (*domain.FileDownload, error) {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionView); err != nil {
		return nil, err
	}

	payload, err := s.fileRepo.GetPayload(ctx, fileUUID)
	if err != nil {
		return nil, err
	}

	if file.Encrypted {
		payload, err = s.codec.Decrypt(payload)
		if err != nil {
			// Key mismatch or corrupted blob. Surface loudly, never hand
			// back ciphertext as if it were the file.
			log.Printf("ERROR: decryption failed for file %s: %v", file.UUID, err)
			return nil, err
		}
	}

	s.audit.RecordAction(userID, action, file.Name)

	return &domain.FileDownload{File: file, Data: payload}, nil
}

// SaveContent replaces the payload in place, re-encrypting and reserving
// only the delta between old and new stored size against the owner.
func (s *FileService) SaveContent(ctx context.Context, userID, fileUUID uuid.UUID, data []byte) error {
	if len(data) == 0 {
		return domain.ErrEmptyFile
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return fmt.Errorf("%w: max size is %d bytes", ErrFileTooLarge, s.maxUploadBytes)
	}

	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionEdit); err != nil {
		return err
	}

	ciphertext, err := s.codec.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt payload: %w", err)
	}

	tx, err := s.fileRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The delta comes from the row-locked value, not the snapshot loaded for
	// the permission check; a concurrent replace may have changed it since.
	stored, err := s.fileRepo.LockStoredBytes(ctx, tx, fileUUID)
	if err != nil {
		return err
	}
	delta := int64(len(ciphertext)) - stored

	if err := s.quotaRepo.Reserve(ctx, tx, file.OwnerID, delta); err != nil {
		return err
	}

	if err := s.fileRepo.UpdateContent(ctx, tx, fileUUID, ciphertext, int64(len(data)), int64(len(ciphertext))); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.RecordAction(userID, domain.ActionSaveContent, file.Name)

	return nil
}

// MoveToBin soft-deletes a file. Already-binned files are a no-op, not an
// error, so retried deletes stay harmless.
func (s *FileService) MoveToBin(ctx context.Context, userID, fileUUID uuid.UUID) error {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionDelete); err != nil {
		return err
	}

	if file.Status == domain.FileStatusBin {
		return nil
	}

	if err := s.fileRepo.SetStatus(ctx, fileUUID, domain.FileStatusBin); err != nil {
		return err
	}

	s.audit.RecordAction(userID, domain.ActionMoveToBin, file.Name)

	return nil
}

// Restore brings a binned file back to active. No-op when already active.
func (s *FileService) Restore(ctx context.Context, userID, fileUUID uuid.UUID) error {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionRestore); err != nil {
		return err
	}

	if file.Status == domain.FileStatusActive {
		return nil
	}

	if err := s.fileRepo.SetStatus(ctx, fileUUID, domain.FileStatusActive); err != nil {
		return err
	}

	s.audit.RecordAction(userID, domain.ActionRestore, file.Name)

	return nil
}

// Purge removes the file permanently. The reserved bytes are credited back
// to the owner's ledger, no matter which permitted user purges.
func (s *FileService) Purge(ctx context.Context, userID, fileUUID uuid.UUID) error {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionDelete); err != nil {
		return err
	}

	if err := s.purgeFile(ctx, file); err != nil {
		return err
	}

	s.audit.RecordAction(userID, domain.ActionPurge, file.Name)

	return nil
}

func (s *FileService) purgeFile(ctx context.Context, file *domain.File) error {
	tx, err := s.fileRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Release exactly what the row holds at delete time. A replace may have
	// committed a different stored size since the file was loaded.
	stored, err := s.fileRepo.LockStoredBytes(ctx, tx, file.UUID)
	if err != nil {
		return err
	}

	if err := s.fileRepo.Delete(ctx, tx, file.UUID); err != nil {
		return err
	}

	if err := s.quotaRepo.Release(ctx, tx, file.OwnerID, stored); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// EmptyTrash purges every binned file the user owns.
func (s *FileService) EmptyTrash(ctx context.Context, userID uuid.UUID) error {
	files, err := s.fileRepo.ListBinOwnedBefore(ctx, userID, time.Time{})
	if err != nil {
		return err
	}

	for i := range files {
		if err := s.purgeFile(ctx, &files[i]); err != nil {
			return fmt.Errorf("failed to purge file %s: %w", files[i].UUID, err)
		}
	}

	if len(files) > 0 {
		s.audit.RecordAction(userID, domain.ActionPurge, fmt.Sprintf("emptied trash (%d files)", len(files)))
	}

	return nil
}

// CleanupExpired purges binned files across all users once their retention
// ran out. Runs from the background ticker, one file at a time so a single
// bad row cannot wedge the whole sweep.
func (s *FileService) CleanupExpired(ctx context.Context, retention time.Duration) error {
	cutoff := time.Now().Add(-retention)

	files, err := s.fileRepo.ListExpiredBin(ctx, cutoff)
	if err != nil {
		return err
	}

	for i := range files {
		if err := s.purgeFile(ctx, &files[i]); err != nil {
			log.Printf("warning: failed to purge expired file %s: %v", files[i].UUID, err)
		}
	}

	if len(files) > 0 {
		log.Printf("trash cleanup: purged %d expired files", len(files))
	}

	return nil
}

// ListActive returns the caller's active files plus files shared to them,
// optionally filtered by a name search term.
func (s *FileService) ListActive(ctx context.Context, userID uuid.UUID, search string) ([]domain.FileMeta, error) {
	files, err := s.fileRepo.ListActive(ctx, userID, search)
	if err != nil {
		return nil, err
	}
	return s.toMetaList(files), nil
}

func (s *FileService) ListBin(ctx context.Context, userID uuid.UUID) ([]domain.FileMeta, error) {
	files, err := s.fileRepo.ListBin(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toMetaList(files), nil
}

// ListSharedByMe includes the recipient emails so the UI can show who a
// file went to.
func (s *FileService) ListSharedByMe(ctx context.Context, userID uuid.UUID) ([]domain.FileMeta, error) {
	files, err := s.fileRepo.ListSharedByMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	metas := make([]domain.FileMeta, 0, len(files))
	for i := range files {
		emails, err := s.fileRepo.GetShareeEmails(ctx, files[i].UUID)
		if err != nil {
			return nil, err
		}
		metas = append(metas, s.toMeta(&files[i], emails))
	}

	return metas, nil
}

func (s *FileService) ListSharedToMe(ctx context.Context, userID uuid.UUID) ([]domain.FileMeta, error) {
	files, err := s.fileRepo.ListSharedToMe(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toMetaList(files), nil
}

func (s *FileService) toMetaList(files []domain.File) []domain.FileMeta {
	metas := make([]domain.FileMeta, 0, len(files))
	for i := range files {
		metas = append(metas, s.toMeta(&files[i], nil))
	}
	return metas
}

func (s *FileService) toMeta(file *domain.File, sharees []string) domain.FileMeta {
	return domain.FileMeta{
		UUID:       file.UUID,
		Name:       file.Name,
		MIMEType:   file.MIMEType,
		SizeBytes:  file.SizeBytes,
		OwnerID:    file.OwnerID,
		Status:     file.Status,
		UploadedAt: file.UploadedAt,
		UpdatedAt:  file.UpdatedAt,
		DeletedAt:  file.DeletedAt,
		Viewable:   IsViewable(file.Name, file.MIMEType),
		Editable:   IsEditable(file.Name, file.MIMEType),
		SharedWith: sharees,
	}
}

func (s *FileService) typeAllowed(name, mimeType string) bool {
	ext := fileExtension(name)
	if ext != "" {
		return s.allowedExts[ext]
	}
	// No extension: fall back to the MIME type for plain text payloads.
	return strings.HasPrefix(mimeType, "text/")
}

func fileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// IsViewable classifies whether the frontend can render the file inline
// (text, images, PDF). Classification only; rendering is the client's job.
func IsViewable(name, mimeType string) bool {
	if IsEditable(name, mimeType) {
		return true
	}
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	switch fileExtension(name) {
	case "pdf", "jpg", "jpeg", "png", "gif", "webp", "svg":
		return true
	}
	return mimeType == "application/pdf"
}

// IsEditable classifies whether the file opens in the inline text editor.
func IsEditable(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch fileExtension(name) {
	case "txt", "md", "csv", "json", "xml", "log":
		return true
	}
	return false
}
