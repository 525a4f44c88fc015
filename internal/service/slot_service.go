package service

import (
	"context"
	"errors"
	"time"

	"slot-booking-service/internal/cache"
	"slot-booking-service/internal/model"
	"slot-booking-service/internal/repository"
	apperrors "slot-booking-service/pkg/app_errors"
	"slot-booking-service/pkg/logger"

	"go.uber.org/zap"
)

type SlotService interface {
	GenerateSlots(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) (int, error)
	GetAvailability(ctx context.Context, tenantID string, slotID int64) (*model.SlotAvailability, error)
	ListSlots(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) ([]*model.Slot, error)
	SetAvailability(ctx context.Context, tenantID string, slotID int64, available bool) error
	CreateShift(ctx context.Context, shift *model.Shift) (*model.Shift, error)
}

type SlotServiceImpl struct {
	slotRepo   repository.SlotRepository
	shiftRepo  repository.ShiftRepository
	availCache cache.SlotAvailabilityManager
}

func NewSlotService(
	slotRepo repository.SlotRepository,
	shiftRepo repository.ShiftRepository,
	availCache cache.SlotAvailabilityManager,
) SlotService {
	return &SlotServiceImpl{
		slotRepo:   slotRepo,
		shiftRepo:  shiftRepo,
		availCache: availCache,
	}
}

// GenerateSlots expands a shift's recurrence over a date range into slot
// rows. Conflicting (shift, date, start) rows are skipped, so the call is
// idempotent over overlapping ranges. Returns the number inserted.
func (s *SlotServiceImpl) GenerateSlots(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, apperrors.ErrInvalidInput
	}

	shift, err := s.shiftRepo.FindByID(ctx, tenantID, shiftID)
	if err != nil {
		return 0, err
	}

	slots := model.ExpandShift(shift, from, to)
	if len(slots) == 0 {
		return 0, nil
	}

	inserted, err := s.slotRepo.CreateBatch(ctx, slots)
	if err != nil {
		return inserted, err
	}

	logger.WithComponent("slot").Info("generated slots",
		zap.Int64("shift_id", shiftID),
		zap.Int("expanded", len(slots)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// GetAvailability serves the read path from the cache, falling back to
// the database and repopulating on a miss.
func (s *SlotServiceImpl) GetAvailability(ctx context.Context, tenantID string, slotID int64) (*model.SlotAvailability, error) {
	avail, err := s.availCache.Get(ctx, tenantID, slotID)
	if err == nil {
		return avail, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.WithComponent("slot").Warn("availability cache read failed",
			zap.Int64("slot_id", slotID), zap.Error(err))
	}

	slot, err := s.slotRepo.FindByID(ctx, tenantID, slotID)
	if err != nil {
		return nil, err
	}

	if err := s.availCache.Set(ctx, slot); err != nil {
		logger.WithComponent("slot").Warn("availability cache write failed",
			zap.Int64("slot_id", slotID), zap.Error(err))
	}

	return &model.SlotAvailability{
		SlotID:            slot.ID,
		OriginalCapacity:  slot.OriginalCapacity,
		AvailableCapacity: slot.AvailableCapacity,
		BookedCount:       slot.BookedCount,
		IsAvailable:       slot.IsAvailable,
	}, nil
}

func (s *SlotServiceImpl) ListSlots(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) ([]*model.Slot, error) {
	return s.slotRepo.List(ctx, tenantID, shiftID, from, to)
}

func (s *SlotServiceImpl) SetAvailability(ctx context.Context, tenantID string, slotID int64, available bool) error {
	if err := s.slotRepo.SetAvailability(ctx, tenantID, slotID, available); err != nil {
		return err
	}

	if err := s.availCache.Invalidate(ctx, tenantID, slotID); err != nil {
		logger.WithComponent("slot").Warn("availability cache invalidation failed",
			zap.Int64("slot_id", slotID), zap.Error(err))
	}
	return nil
}

func (s *SlotServiceImpl) CreateShift(ctx context.Context, shift *model.Shift) (*model.Shift, error) {
	if shift.SlotMinutes <= 0 || shift.EndMinute <= shift.StartMinute || shift.DefaultCapacity <= 0 || len(shift.Weekdays) == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	return s.shiftRepo.Create(ctx, shift)
}
