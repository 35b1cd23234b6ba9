package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

func TestPermissionService_Owner(t *testing.T) {
	perms := NewPermissionService(repository.NewFileRepository(nil))

	ownerID := uuid.New()
	file := &domain.File{UUID: uuid.New(), OwnerID: ownerID, Status: domain.FileStatusActive}

	// Owner resolution never touches the database.
	got, err := perms.PermissionsFor(context.Background(), ownerID, file)
	require.NoError(t, err)
	for _, p := range []domain.Permission{
		domain.PermissionView, domain.PermissionEdit, domain.PermissionDelete,
		domain.PermissionShare, domain.PermissionRestore,
	} {
		assert.True(t, got.Has(p), "owner should hold %s", p)
	}
}

func TestPermissionService_OwnerKeepsRightsInBin(t *testing.T) {
	perms := NewPermissionService(repository.NewFileRepository(nil))

	ownerID := uuid.New()
	now := time.Now()
	file := &domain.File{
		UUID: uuid.New(), OwnerID: ownerID,
		Status: domain.FileStatusBin, DeletedAt: &now,
	}

	got, err := perms.PermissionsFor(context.Background(), ownerID, file)
	require.NoError(t, err)
	assert.True(t, got.Has(domain.PermissionRestore))
	assert.True(t, got.Has(domain.PermissionDelete))
}

func TestPermissionService_Sharee(t *testing.T) {
	e := newTestEnv(t)
	perms := e.files.permissions

	shareeID := uuid.New()
	file := &domain.File{UUID: uuid.New(), OwnerID: uuid.New(), Status: domain.FileStatusActive}

	e.expectIsSharedWith(file.UUID, shareeID, true)

	got, err := perms.PermissionsFor(context.Background(), shareeID, file)
	require.NoError(t, err)
	assert.True(t, got.Has(domain.PermissionEdit))
	assert.True(t, got.Has(domain.PermissionShare))
}

func TestPermissionService_Stranger(t *testing.T) {
	e := newTestEnv(t)
	perms := e.files.permissions

	strangerID := uuid.New()
	file := &domain.File{UUID: uuid.New(), OwnerID: uuid.New(), Status: domain.FileStatusActive}

	e.expectIsSharedWith(file.UUID, strangerID, false)

	got, err := perms.PermissionsFor(context.Background(), strangerID, file)
	require.NoError(t, err)
	assert.Empty(t, got)

	e.expectIsSharedWith(file.UUID, strangerID, false)
	err = perms.Require(context.Background(), strangerID, file, domain.PermissionView)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
