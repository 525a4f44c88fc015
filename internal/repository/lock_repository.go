package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slot-booking-service/internal/model"
	apperrors "slot-booking-service/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LockRepository interface {
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, lock *model.BookingLock) error
	FindByID(ctx context.Context, tx pgx.Tx, tenantID string, id uuid.UUID) (*model.BookingLock, error)
	SumActiveBySlot(ctx context.Context, tx pgx.Tx, tenantID string, slotID int64, now time.Time) (int, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, tenantID string, id uuid.UUID) error
}

type LockRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewLockRepository(pool *pgxpool.Pool) LockRepository {
	return &LockRepositoryImpl{
		pool: pool,
	}
}

func (r *LockRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, lock *model.BookingLock) error {
	query := `
		INSERT INTO booking_locks (id, tenant_id, slot_id, reserved_capacity, session_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRow(ctx, query,
		lock.ID, lock.TenantID, lock.SlotID, lock.ReservedCapacity, lock.SessionID, lock.ExpiresAt,
	).Scan(&lock.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking lock: %w", err)
	}

	return nil
}

func (r *LockRepositoryImpl) FindByID(ctx context.Context, tx pgx.Tx, tenantID string, id uuid.UUID) (*model.BookingLock, error) {
	query := `
		SELECT id, tenant_id, slot_id, reserved_capacity, session_id, expires_at, created_at
		FROM booking_locks
		WHERE id = $1 AND tenant_id = $2
	`

	var lock model.BookingLock
	err := tx.QueryRow(ctx, query, id, tenantID).Scan(
		&lock.ID,
		&lock.TenantID,
		&lock.SlotID,
		&lock.ReservedCapacity,
		&lock.SessionID,
		&lock.ExpiresAt,
		&lock.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrLockNotFound
		}
		return nil, err
	}

	return &lock, nil
}

// SumActiveBySlot totals the reserved capacity of unexpired locks for a
// slot. Callers must hold the slot row lock so the sum cannot change
// between check and insert.
func (r *LockRepositoryImpl) SumActiveBySlot(ctx context.Context, tx pgx.Tx, tenantID string, slotID int64, now time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(reserved_capacity), 0)
		FROM booking_locks
		WHERE slot_id = $1 AND tenant_id = $2 AND expires_at > $3
	`

	var reserved int
	err := tx.QueryRow(ctx, query, slotID, tenantID, now).Scan(&reserved)
	if err != nil {
		return 0, err
	}

	return reserved, nil
}

func (r *LockRepositoryImpl) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	query := `
		DELETE FROM booking_locks
		WHERE id = $1 AND tenant_id = $2
	`

	result, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrLockNotFound
	}

	return nil
}

func (r *LockRepositoryImpl) DeleteTx(ctx context.Context, tx pgx.Tx, tenantID string, id uuid.UUID) error {
	query := `
		DELETE FROM booking_locks
		WHERE id = $1 AND tenant_id = $2
	`

	result, err := tx.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrLockNotFound
	}

	return nil
}

// DeleteExpired purges all lock rows past expiry across tenants; the TTL
// is the backstop for clients that abandon the flow without releasing.
func (r *LockRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM booking_locks
		WHERE expires_at <= $1
	`

	result, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
