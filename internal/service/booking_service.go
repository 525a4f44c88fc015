package service

import (
	"context"
	"time"

	"slot-booking-service/internal/cache"
	"slot-booking-service/internal/events"
	"slot-booking-service/internal/model"
	"slot-booking-service/internal/repository"
	apperrors "slot-booking-service/pkg/app_errors"
	"slot-booking-service/pkg/logger"
	"slot-booking-service/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// BookingService is the booking lifecycle state machine. Every
// capacity-affecting operation runs in one transaction that acquires the
// slot row first and the ledger row second, on every path.
type BookingService interface {
	CreateBooking(ctx context.Context, tenantID string, req model.CreateBookingRequest) (*model.Booking, error)
	TransitionStatus(ctx context.Context, tenantID string, bookingID int64, newStatus model.BookingStatus) (*model.Booking, error)
	GetBookingByID(ctx context.Context, tenantID string, id int64) (*model.Booking, error)
	ListBySlot(ctx context.Context, tenantID string, slotID int64) ([]*model.Booking, error)
}

type BookingServiceImpl struct {
	pool        *pgxpool.Pool
	bookingRepo repository.BookingRepository
	slotRepo    repository.SlotRepository
	lockRepo    repository.LockRepository
	ledgerRepo  repository.LedgerRepository
	availCache  cache.SlotAvailabilityManager
	publisher   events.EventPublisher
}

func NewBookingService(
	pool *pgxpool.Pool,
	bookingRepo repository.BookingRepository,
	slotRepo repository.SlotRepository,
	lockRepo repository.LockRepository,
	ledgerRepo repository.LedgerRepository,
	availCache cache.SlotAvailabilityManager,
	publisher events.EventPublisher,
) BookingService {
	return &BookingServiceImpl{
		pool:        pool,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		lockRepo:    lockRepo,
		ledgerRepo:  ledgerRepo,
		availCache:  availCache,
		publisher:   publisher,
	}
}

// CreateBooking converts a held lock into a pending booking: insert the
// booking row, claim slot capacity, consume package quota and delete the
// lock, all in one transaction. Pending bookings hold capacity just like
// confirmed ones; a pending booking is still an outstanding commitment.
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, tenantID string, req model.CreateBookingRequest) (*model.Booking, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// slot row first: capacity operations for one slot are totally
	// ordered by this lock
	slot, err := s.slotRepo.FindByIDWithLock(ctx, tx, tenantID, req.SlotID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lock, err := s.lockRepo.FindByID(ctx, tx, tenantID, req.LockID)
	if err != nil {
		if err == apperrors.ErrLockNotFound {
			return nil, apperrors.ErrLockExpiredOrInvalid
		}
		return nil, err
	}

	if lock.SlotID != req.SlotID || lock.Expired(now) || lock.ReservedCapacity < req.VisitorCount {
		return nil, apperrors.ErrLockExpiredOrInvalid
	}

	// package coverage split: covered = min(visitors, remaining quota),
	// the rest is paid. Ledger row is locked after the slot row.
	covered, paid := 0, req.VisitorCount
	if req.PackageSubscriptionID != nil {
		usage, err := s.ledgerRepo.FindForUpdate(ctx, tx, tenantID, *req.PackageSubscriptionID, req.ServiceID)
		if err != nil {
			return nil, err
		}
		covered, paid = model.SplitCoverage(req.VisitorCount, usage.RemainingQuantity)
		if req.RequireFullCoverage && paid > 0 {
			return nil, apperrors.ErrInsufficientQuota
		}
	}

	booking := &model.Booking{
		BookingID:             uuid.New(),
		TenantID:              tenantID,
		ServiceID:             req.ServiceID,
		SlotID:                req.SlotID,
		CustomerID:            req.CustomerID,
		PackageSubscriptionID: req.PackageSubscriptionID,
		VisitorCount:          req.VisitorCount,
		TotalPrice:            req.UnitPrice * float64(paid),
		PackageCoveredQty:     covered,
		PaidQty:               paid,
		Status:                model.BookingStatusPending,
	}

	created, err := s.bookingRepo.Create(ctx, tx, booking)
	if err != nil {
		return nil, err
	}

	if err := s.slotRepo.AdjustCapacity(ctx, tx, tenantID, req.SlotID, -req.VisitorCount, +req.VisitorCount); err != nil {
		return nil, err
	}

	if covered > 0 {
		if err := s.ledgerRepo.Reserve(ctx, tx, tenantID, *req.PackageSubscriptionID, req.ServiceID, covered); err != nil {
			return nil, err
		}
	}

	// consume the lock in the same transaction so a duplicate create
	// cannot reuse it
	if err := s.lockRepo.DeleteTx(ctx, tx, tenantID, lock.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(string(model.BookingStatusPending))
	s.afterCapacityChange(ctx, tenantID, created, slot, events.EventBookingCreated)
	return created, nil
}

// TransitionStatus applies a lifecycle transition. Capacity and quota are
// restored when the booking leaves the active set {pending, confirmed},
// regardless of which active status it held. Re-applying the same
// terminal transition is a no-op, never a double restore.
func (s *BookingServiceImpl) TransitionStatus(ctx context.Context, tenantID string, bookingID int64, newStatus model.BookingStatus) (*model.Booking, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.ErrInvalidTransition
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := s.bookingRepo.FindByIDWithLock(ctx, tx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == newStatus && newStatus.IsTerminal() {
		return booking, nil
	}

	if !booking.Status.CanTransitionTo(newStatus) {
		logger.WithComponent("booking").Warn("rejected status transition",
			zap.Int64("booking_id", bookingID),
			zap.String("from", string(booking.Status)),
			zap.String("to", string(newStatus)),
		)
		return nil, apperrors.ErrInvalidTransition
	}

	var slot *model.Slot
	if booking.Status.IsActive() && !newStatus.IsActive() {
		slot, err = s.slotRepo.FindByIDWithLock(ctx, tx, tenantID, booking.SlotID)
		if err != nil {
			return nil, err
		}

		if err := s.slotRepo.AdjustCapacity(ctx, tx, tenantID, booking.SlotID, +booking.VisitorCount, -booking.VisitorCount); err != nil {
			return nil, err
		}

		if booking.PackageCoveredQty > 0 && booking.PackageSubscriptionID != nil && newStatus == model.BookingStatusCancelled {
			if err := s.ledgerRepo.Restore(ctx, tx, tenantID, *booking.PackageSubscriptionID, booking.ServiceID, booking.PackageCoveredQty); err != nil {
				return nil, err
			}
		}
	}

	updated, err := s.bookingRepo.UpdateStatus(ctx, tx, tenantID, bookingID, newStatus)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(string(newStatus))
	s.afterCapacityChange(ctx, tenantID, updated, slot, eventTypeFor(newStatus))
	return updated, nil
}

func (s *BookingServiceImpl) GetBookingByID(ctx context.Context, tenantID string, id int64) (*model.Booking, error) {
	return s.bookingRepo.FindByID(ctx, tenantID, id)
}

func (s *BookingServiceImpl) ListBySlot(ctx context.Context, tenantID string, slotID int64) ([]*model.Booking, error) {
	return s.bookingRepo.ListBySlot(ctx, tenantID, slotID)
}

func eventTypeFor(status model.BookingStatus) events.EventType {
	switch status {
	case model.BookingStatusConfirmed:
		return events.EventBookingConfirmed
	case model.BookingStatusCancelled:
		return events.EventBookingCancelled
	case model.BookingStatusCompleted:
		return events.EventBookingCompleted
	default:
		return events.EventBookingCreated
	}
}

// afterCapacityChange runs outside the capacity transaction: cache
// invalidation and event publishing must never roll back or block a
// committed booking.
func (s *BookingServiceImpl) afterCapacityChange(ctx context.Context, tenantID string, booking *model.Booking, slot *model.Slot, eventType events.EventType) {
	log := logger.WithComponent("booking")

	if err := s.availCache.Invalidate(ctx, tenantID, booking.SlotID); err != nil {
		log.Warn("availability cache invalidation failed",
			zap.Int64("slot_id", booking.SlotID), zap.Error(err))
	}

	event := &events.BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		PublicID:     booking.BookingID,
		TenantID:     tenantID,
		ServiceID:    booking.ServiceID,
		SlotID:       booking.SlotID,
		VisitorCount: booking.VisitorCount,
		CustomerID:   booking.CustomerID,
		OccurredAt:   time.Now().UTC(),
	}
	if slot != nil {
		event.SlotStartTime = slot.StartTime
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error("booking event publish failed",
			zap.Int64("booking_id", booking.ID),
			zap.String("type", string(eventType)),
			zap.Error(err))
	}
}
