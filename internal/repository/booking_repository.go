package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking-service/internal/model"
	apperrors "slot-booking-service/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	FindByID(ctx context.Context, tenantID string, id int64) (*model.Booking, error)
	ListBySlot(ctx context.Context, tenantID string, slotID int64) ([]*model.Booking, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, tenantID string, id int64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, tenantID string, id int64, status model.BookingStatus) (*model.Booking, error)
	SumActiveVisitorsBySlot(ctx context.Context, tx pgx.Tx, tenantID string, slotID int64) (int, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, booking_id, tenant_id, service_id, slot_id, customer_id,
		package_subscription_id, visitor_count, total_price,
		package_covered_qty, paid_qty, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.BookingID,
		&booking.TenantID,
		&booking.ServiceID,
		&booking.SlotID,
		&booking.CustomerID,
		&booking.PackageSubscriptionID,
		&booking.VisitorCount,
		&booking.TotalPrice,
		&booking.PackageCoveredQty,
		&booking.PaidQty,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := fmt.Sprintf(`
		INSERT INTO bookings (
			booking_id, tenant_id, service_id, slot_id, customer_id,
			package_subscription_id, visitor_count, total_price,
			package_covered_qty, paid_qty, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, bookingColumns)

	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.BookingID, booking.TenantID, booking.ServiceID, booking.SlotID,
		booking.CustomerID, booking.PackageSubscriptionID, booking.VisitorCount,
		booking.TotalPrice, booking.PackageCoveredQty, booking.PaidQty, booking.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, tenantID string, id int64) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE id = $1 AND tenant_id = $2
	`, bookingColumns)

	return scanBooking(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, tenantID string, id int64) (*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, bookingColumns)

	return scanBooking(tx.QueryRow(ctx, query, id, tenantID))
}

func (r *BookingRepositoryImpl) ListBySlot(ctx context.Context, tenantID string, slotID int64) ([]*model.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE slot_id = $1 AND tenant_id = $2
		ORDER BY created_at DESC
	`, bookingColumns)

	rows, err := r.pool.Query(ctx, query, slotID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *BookingRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, tenantID string, id int64, status model.BookingStatus) (*model.Booking, error) {
	query := fmt.Sprintf(`
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4
		RETURNING %s
	`, bookingColumns)

	updated, err := scanBooking(tx.QueryRow(ctx, query, status, time.Now().UTC(), id, tenantID))
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return updated, nil
}

// SumActiveVisitorsBySlot is the reconciliation ground truth: total
// visitors across bookings still holding capacity for the slot.
func (r *BookingRepositoryImpl) SumActiveVisitorsBySlot(ctx context.Context, tx pgx.Tx, tenantID string, slotID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(visitor_count), 0)
		FROM bookings
		WHERE slot_id = $1 AND tenant_id = $2 AND status IN ($3, $4)
	`

	var visitors int
	err := tx.QueryRow(ctx, query, slotID, tenantID,
		model.BookingStatusPending, model.BookingStatusConfirmed,
	).Scan(&visitors)
	if err != nil {
		return 0, err
	}

	return visitors, nil
}
