package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

// PermissionService is the single place the capability rules are defined.
// Every operation in the file and share services gates through it instead of
// re-deriving ad-hoc owner checks per endpoint.
type PermissionService struct {
	fileRepo *repository.FileRepository
}

func NewPermissionService(fileRepo *repository.FileRepository) *PermissionService {
	return &PermissionService{fileRepo: fileRepo}
}

// PermissionsFor computes the capability set of a user on a file.
//
// Owners hold the full set in every status. Sharees hold the full set too,
// bin included: a recipient may edit, delete to bin, restore and re-share.
// Only purge accounting is asymmetric, crediting the owner's quota no
// matter who purges. Everyone else gets nothing.
func (s *PermissionService) PermissionsFor(ctx context.Context, userID uuid.UUID, file *domain.File) (domain.PermissionSet, error) {
	if file.OwnerID == userID {
		return domain.FullPermissions(), nil
	}

	shared, err := s.fileRepo.IsSharedWith(ctx, file.UUID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check share membership: %w", err)
	}
	if shared {
		return domain.FullPermissions(), nil
	}

	return domain.PermissionSet{}, nil
}

// Require returns ErrAccessDenied unless the user holds the permission.
func (s *PermissionService) Require(ctx context.Context, userID uuid.UUID, file *domain.File, perm domain.Permission) error {
	perms, err := s.PermissionsFor(ctx, userID, file)
	if err != nil {
		return err
	}
	if !perms.Has(perm) {
		return domain.ErrAccessDenied
	}
	return nil
}
