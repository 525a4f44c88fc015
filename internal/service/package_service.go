package service

import (
	"context"

	"slot-booking-service/internal/model"
	"slot-booking-service/internal/repository"
	apperrors "slot-booking-service/pkg/app_errors"
)

// PackageService exposes the quota ledger's read side and subscription
// activation. Quota reserve/restore stay private to the booking
// lifecycle; nothing else mutates the ledger.
type PackageService interface {
	ActivateSubscription(ctx context.Context, tenantID string, subscriptionID int64, entitlements map[int64]int) error
	GetUsage(ctx context.Context, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error)
}

type PackageServiceImpl struct {
	ledgerRepo repository.LedgerRepository
}

func NewPackageService(ledgerRepo repository.LedgerRepository) PackageService {
	return &PackageServiceImpl{ledgerRepo: ledgerRepo}
}

// ActivateSubscription seeds one ledger row per covered service.
func (s *PackageServiceImpl) ActivateSubscription(ctx context.Context, tenantID string, subscriptionID int64, entitlements map[int64]int) error {
	if len(entitlements) == 0 {
		return apperrors.ErrInvalidInput
	}

	entries := make([]*model.PackageUsage, 0, len(entitlements))
	for serviceID, quantity := range entitlements {
		if quantity <= 0 {
			return apperrors.ErrInvalidInput
		}
		entries = append(entries, &model.PackageUsage{
			SubscriptionID:    subscriptionID,
			ServiceID:         serviceID,
			TenantID:          tenantID,
			OriginalQuantity:  quantity,
			RemainingQuantity: quantity,
		})
	}

	return s.ledgerRepo.CreateEntries(ctx, entries)
}

func (s *PackageServiceImpl) GetUsage(ctx context.Context, tenantID string, subscriptionID, serviceID int64) (*model.PackageUsage, error) {
	return s.ledgerRepo.Find(ctx, tenantID, subscriptionID, serviceID)
}
