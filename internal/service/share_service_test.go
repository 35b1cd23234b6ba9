package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

type shareTestEnv struct {
	mock   sqlmock.Sqlmock
	shares *ShareService
}

func newShareTestEnv(t *testing.T) *shareTestEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	auditDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { auditDB.Close() })
	audit := NewAuditService(repository.NewAuditRepository(sqlx.NewDb(auditDB, "sqlmock")))
	t.Cleanup(audit.Close)

	fileRepo := repository.NewFileRepository(sqlxDB)
	userRepo := repository.NewUserRepository(sqlxDB)
	permissions := NewPermissionService(fileRepo)

	return &shareTestEnv{
		mock:   mock,
		shares: NewShareService(fileRepo, userRepo, permissions, audit),
	}
}

func (e *shareTestEnv) expectGetFile(fileUUID, ownerID uuid.UUID) {
	now := time.Now()
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT uuid, name, mime_type")).
		WithArgs(fileUUID).
		WillReturnRows(sqlmock.NewRows(fileColumns()).
			AddRow(fileUUID.String(), "notes.txt", "text/plain", 600, 628, true,
				ownerID.String(), string(domain.FileStatusActive), now, now, nil))
}

func (e *shareTestEnv) expectGetByEmail(email string, userID uuid.UUID) {
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE email")).
		WithArgs(email).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "storage_used", "storage_limit", "created_at"}).
			AddRow(userID.String(), "someone", email, "hash", 0, domain.DefaultStorageLimit, time.Now()))
}

func (e *shareTestEnv) expectIsSharedWith(fileUUID, userID uuid.UUID, shared bool) {
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(fileUUID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(shared))
}

func TestShareService_Share(t *testing.T) {
	e := newShareTestEnv(t)
	ownerID := uuid.New()
	recipientID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, ownerID)
	e.expectGetByEmail("bob@example.com", recipientID)
	e.expectIsSharedWith(fileUUID, recipientID, false)
	e.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO file_shares")).
		WithArgs(fileUUID, recipientID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := e.shares.Share(context.Background(), ownerID, fileUUID, "bob@example.com")
	require.NoError(t, err)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestShareService_Share_RecipientNotFound(t *testing.T) {
	e := newShareTestEnv(t)
	ownerID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, ownerID)
	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE email")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := e.shares.Share(context.Background(), ownerID, fileUUID, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrRecipientNotFound)
}

func TestShareService_Share_Self(t *testing.T) {
	e := newShareTestEnv(t)
	ownerID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, ownerID)
	e.expectGetByEmail("me@example.com", ownerID)

	err := e.shares.Share(context.Background(), ownerID, fileUUID, "me@example.com")
	assert.ErrorIs(t, err, domain.ErrSelfShare)
}

func TestShareService_Share_RecipientIsOwner(t *testing.T) {
	// A sharee re-sharing the file back to its owner: the owner already has
	// full access, so the grant is reported as a duplicate.
	e := newShareTestEnv(t)
	ownerID := uuid.New()
	shareeID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, ownerID)
	e.expectIsSharedWith(fileUUID, shareeID, true)
	e.expectGetByEmail("owner@example.com", ownerID)

	err := e.shares.Share(context.Background(), shareeID, fileUUID, "owner@example.com")
	assert.ErrorIs(t, err, domain.ErrAlreadyShared)
}

func TestShareService_Share_AlreadyShared(t *testing.T) {
	e := newShareTestEnv(t)
	ownerID := uuid.New()
	recipientID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, ownerID)
	e.expectGetByEmail("bob@example.com", recipientID)
	e.expectIsSharedWith(fileUUID, recipientID, true)

	err := e.shares.Share(context.Background(), ownerID, fileUUID, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrAlreadyShared)
}

func TestShareService_Share_DeniedForStranger(t *testing.T) {
	e := newShareTestEnv(t)
	strangerID := uuid.New()
	fileUUID := uuid.New()

	e.expectGetFile(fileUUID, uuid.New())
	e.expectIsSharedWith(fileUUID, strangerID, false)

	err := e.shares.Share(context.Background(), strangerID, fileUUID, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestShareService_Share_FileNotFound(t *testing.T) {
	e := newShareTestEnv(t)
	fileUUID := uuid.New()

	e.mock.ExpectQuery(regexp.QuoteMeta("SELECT uuid, name, mime_type")).
		WithArgs(fileUUID).
		WillReturnRows(sqlmock.NewRows(fileColumns()))

	err := e.shares.Share(context.Background(), uuid.New(), fileUUID, "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}
