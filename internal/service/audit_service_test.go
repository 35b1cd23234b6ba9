package service

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

func TestAuditService_WritesQueuedEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WithArgs(userID, string(domain.ActionUpload), "notes.txt").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WithArgs(userID, string(domain.ActionShare), "notes.txt -> bob@example.com").
		WillReturnResult(sqlmock.NewResult(2, 1))

	audit := NewAuditService(repository.NewAuditRepository(sqlx.NewDb(db, "sqlmock")))
	audit.RecordAction(userID, domain.ActionUpload, "notes.txt")
	audit.RecordAction(userID, domain.ActionShare, "notes.txt -> bob@example.com")

	// Close drains the queue, so both inserts have landed by now.
	audit.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_InsertFailureDoesNotPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnError(assert.AnError)

	audit := NewAuditService(repository.NewAuditRepository(sqlx.NewDb(db, "sqlmock")))
	audit.RecordAction(uuid.New(), domain.ActionLogin, "alice")
	audit.Close()
}
