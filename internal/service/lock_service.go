package service

import (
	"context"
	"time"

	"slot-booking-service/internal/model"
	"slot-booking-service/internal/repository"
	apperrors "slot-booking-service/pkg/app_errors"
	"slot-booking-service/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LockService serializes capacity claims ahead of booking creation. The
// slot row lock held across check-and-insert is what keeps two
// concurrent acquirers from both winning the last unit of capacity.
type LockService interface {
	AcquireLock(ctx context.Context, tenantID string, req model.AcquireLockRequest) (*model.BookingLock, error)
	ReleaseLock(ctx context.Context, tenantID string, id uuid.UUID) error
	SweepExpiredLocks(ctx context.Context) (int64, error)
}

type LockServiceImpl struct {
	pool       *pgxpool.Pool
	slotRepo   repository.SlotRepository
	lockRepo   repository.LockRepository
	defaultTTL time.Duration
	maxTTL     time.Duration
}

func NewLockService(
	pool *pgxpool.Pool,
	slotRepo repository.SlotRepository,
	lockRepo repository.LockRepository,
	defaultTTL time.Duration,
	maxTTL time.Duration,
) LockService {
	return &LockServiceImpl{
		pool:       pool,
		slotRepo:   slotRepo,
		lockRepo:   lockRepo,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}
}

func (s *LockServiceImpl) ttlFor(req model.AcquireLockRequest) time.Duration {
	if req.TTLSeconds <= 0 {
		return s.defaultTTL
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second
	if ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}

func (s *LockServiceImpl) AcquireLock(ctx context.Context, tenantID string, req model.AcquireLockRequest) (*model.BookingLock, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// 1. lock the slot row; all capacity checks for this slot serialize here
	slot, err := s.slotRepo.FindByIDWithLock(ctx, tx, tenantID, req.SlotID)
	if err != nil {
		return nil, err
	}

	if !slot.IsAvailable {
		return nil, apperrors.ErrSlotUnavailable
	}

	// 2. sum capacity held by unexpired locks and check the claim fits
	now := time.Now().UTC()
	reserved, err := s.lockRepo.SumActiveBySlot(ctx, tx, tenantID, req.SlotID, now)
	if err != nil {
		return nil, err
	}

	if req.VisitorCount > slot.ClaimableCapacity(reserved) {
		metrics.IncLocksDenied()
		return nil, apperrors.ErrCapacityExceeded
	}

	// 3. insert the lock row while still holding the slot lock
	lock := &model.BookingLock{
		ID:               uuid.New(),
		TenantID:         tenantID,
		SlotID:           req.SlotID,
		ReservedCapacity: req.VisitorCount,
		SessionID:        req.SessionID,
		ExpiresAt:        now.Add(s.ttlFor(req)),
	}

	if err := s.lockRepo.Create(ctx, tx, lock); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncLocksAcquired()
	return lock, nil
}

// ReleaseLock frees held capacity early when the client abandons the
// flow; waiting for the TTL sweep is the backstop, not the primary path.
func (s *LockServiceImpl) ReleaseLock(ctx context.Context, tenantID string, id uuid.UUID) error {
	return s.lockRepo.Delete(ctx, tenantID, id)
}

func (s *LockServiceImpl) SweepExpiredLocks(ctx context.Context) (int64, error) {
	swept, err := s.lockRepo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if swept > 0 {
		metrics.AddLocksSwept(swept)
	}
	return swept, nil
}
