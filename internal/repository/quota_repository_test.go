package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestQuotaRepository_Reserve(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuotaRepository(db)
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(600), ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.Reserve(context.Background(), tx, ownerID, 600)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepository_Reserve_QuotaExceeded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuotaRepository(db)
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(500), ownerID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT storage_used, storage_limit FROM users")).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"storage_used", "storage_limit"}).AddRow(600, 1000))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.Reserve(context.Background(), tx, ownerID, 500)
	require.Error(t, err)
	assert.True(t, domain.IsQuotaExceeded(err))

	var qe *domain.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(600), qe.UsedBytes)
	assert.Equal(t, int64(1000), qe.LimitBytes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepository_Release(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuotaRepository(db)
	ownerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(600), ownerID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Beginx()
	require.NoError(t, err)

	err = repo.Release(context.Background(), tx, ownerID, 600)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepository_GetUsage_UserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuotaRepository(db)
	ownerID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT storage_used, storage_limit FROM users")).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"storage_used", "storage_limit"}))

	_, _, err := repo.GetUsage(context.Background(), ownerID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
