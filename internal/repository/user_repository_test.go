package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
)

func userColumns() []string {
	return []string{"id", "username", "email", "password_hash", "storage_used", "storage_limit", "created_at"}
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	user := &domain.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		StorageLimit: domain.DefaultStorageLimit,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), user)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestUserRepository_GetByEmail_NormalizesInput(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE email")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(userID.String(), "alice", "alice@example.com", "hash", 0, domain.DefaultStorageLimit, time.Now()))

	user, err := repo.GetByEmail(context.Background(), "  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
}

func TestUserRepository_GetByLogin_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE username")).
		WithArgs("ghost", "ghost").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repo.GetByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
