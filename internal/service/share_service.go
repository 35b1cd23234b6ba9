package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

// ShareService resolves share recipients by email and mutates a file's
// share set.
type ShareService struct {
	fileRepo    *repository.FileRepository
	userRepo    *repository.UserRepository
	permissions *PermissionService
	audit       *AuditService
}

func NewShareService(
	fileRepo *repository.FileRepository,
	userRepo *repository.UserRepository,
	permissions *PermissionService,
	audit *AuditService,
) *ShareService {
	return &ShareService{
		fileRepo:    fileRepo,
		userRepo:    userRepo,
		permissions: permissions,
		audit:       audit,
	}
}

// Share grants a user, looked up by exact email, access to a file. The
// caller needs share rights, which sharees themselves hold, so a sharee
// can re-share. Duplicate shares are rejected, not silently ignored, so
// the user gets told the recipient already has access.
func (s *ShareService) Share(ctx context.Context, userID, fileUUID uuid.UUID, recipientEmail string) error {
	file, err := s.fileRepo.GetByUUID(ctx, fileUUID)
	if err != nil {
		return err
	}

	if err := s.permissions.Require(ctx, userID, file, domain.PermissionShare); err != nil {
		return err
	}

	recipient, err := s.userRepo.GetByEmail(ctx, recipientEmail)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrRecipientNotFound
	}
	if err != nil {
		return err
	}

	if recipient.ID == userID {
		return domain.ErrSelfShare
	}

	// The owner is implicitly in every share set and must never appear in
	// the stored one.
	if recipient.ID == file.OwnerID {
		return domain.ErrAlreadyShared
	}

	shared, err := s.fileRepo.IsSharedWith(ctx, fileUUID, recipient.ID)
	if err != nil {
		return err
	}
	if shared {
		return domain.ErrAlreadyShared
	}

	if err := s.fileRepo.AddShare(ctx, fileUUID, recipient.ID); err != nil {
		return err
	}

	s.audit.RecordAction(userID, domain.ActionShare,
		fmt.Sprintf("%s -> %s", file.Name, recipient.Email))

	return nil
}
