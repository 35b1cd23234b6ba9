package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"vaultdrive/internal/domain"
	"vaultdrive/internal/repository"
)

type QuotaService struct {
	quotaRepo *repository.QuotaRepository
}

func NewQuotaService(quotaRepo *repository.QuotaRepository) *QuotaService {
	return &QuotaService{quotaRepo: quotaRepo}
}

func (s *QuotaService) GetQuotaInfo(ctx context.Context, ownerID uuid.UUID) (*domain.QuotaInfo, error) {
	used, limit, err := s.quotaRepo.GetUsage(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quota: %w", err)
	}

	return &domain.QuotaInfo{
		TotalSpace:     limit,
		UsedSpace:      used,
		AvailableSpace: limit - used,
		UsagePercent:   float64(used) / float64(limit) * 100,
	}, nil
}
