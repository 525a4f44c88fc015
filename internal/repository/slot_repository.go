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

type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []*model.Slot) (int, error)
	FindByID(ctx context.Context, tenantID string, id int64) (*model.Slot, error)
	List(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) ([]*model.Slot, error)
	ListIDs(ctx context.Context, tenantID string) ([]int64, error)
	SetAvailability(ctx context.Context, tenantID string, id int64, available bool) error

	// Transaction methods
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, tenantID string, id int64) (*model.Slot, error)
	AdjustCapacity(ctx context.Context, tx pgx.Tx, tenantID string, id int64, capacityDelta, bookedDelta int) error
	SetCapacity(ctx context.Context, tx pgx.Tx, tenantID string, id int64, available, booked int) error
}

type SlotRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) SlotRepository {
	return &SlotRepositoryImpl{
		pool: pool,
	}
}

const slotColumns = `id, tenant_id, shift_id, slot_date, start_time, end_time,
		original_capacity, available_capacity, booked_count, is_available,
		created_at, updated_at`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var slot model.Slot
	err := row.Scan(
		&slot.ID,
		&slot.TenantID,
		&slot.ShiftID,
		&slot.SlotDate,
		&slot.StartTime,
		&slot.EndTime,
		&slot.OriginalCapacity,
		&slot.AvailableCapacity,
		&slot.BookedCount,
		&slot.IsAvailable,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSlotNotFound
		}
		return nil, err
	}
	return &slot, nil
}

// CreateBatch inserts generated slots, silently skipping rows that collide
// on (shift_id, slot_date, start_time) so re-running generation over an
// overlapping date range is idempotent. Returns the number inserted.
func (r *SlotRepositoryImpl) CreateBatch(ctx context.Context, slots []*model.Slot) (int, error) {
	query := `
		INSERT INTO slots (
			tenant_id, shift_id, slot_date, start_time, end_time,
			original_capacity, available_capacity, booked_count, is_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (shift_id, slot_date, start_time) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(query,
			slot.TenantID, slot.ShiftID, slot.SlotDate, slot.StartTime, slot.EndTime,
			slot.OriginalCapacity, slot.AvailableCapacity, slot.BookedCount, slot.IsAvailable,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range slots {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert slot batch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

func (r *SlotRepositoryImpl) FindByID(ctx context.Context, tenantID string, id int64) (*model.Slot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM slots
		WHERE id = $1 AND tenant_id = $2
	`, slotColumns)

	return scanSlot(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *SlotRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, tenantID string, id int64) (*model.Slot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM slots
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, slotColumns)

	return scanSlot(tx.QueryRow(ctx, query, id, tenantID))
}

func (r *SlotRepositoryImpl) List(ctx context.Context, tenantID string, shiftID int64, from, to time.Time) ([]*model.Slot, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM slots
		WHERE tenant_id = $1 AND shift_id = $2 AND slot_date >= $3 AND slot_date <= $4
		ORDER BY start_time
	`, slotColumns)

	rows, err := r.pool.Query(ctx, query, tenantID, shiftID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]*model.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

func (r *SlotRepositoryImpl) ListIDs(ctx context.Context, tenantID string) ([]int64, error) {
	query := `
		SELECT id
		FROM slots
		WHERE tenant_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *SlotRepositoryImpl) SetAvailability(ctx context.Context, tenantID string, id int64, available bool) error {
	query := `
		UPDATE slots
		SET is_available = $1, updated_at = $2
		WHERE id = $3 AND tenant_id = $4
	`

	result, err := r.pool.Exec(ctx, query, available, time.Now().UTC(), id, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSlotNotFound
	}

	return nil
}

// AdjustCapacity applies available_capacity += capacityDelta and
// booked_count += bookedDelta in one guarded UPDATE under the caller's
// transaction. Zero rows affected with an existing slot means the
// adjustment would drive a counter out of [0, original_capacity], which
// callers respecting the lock discipline never cause.
func (r *SlotRepositoryImpl) AdjustCapacity(ctx context.Context, tx pgx.Tx, tenantID string, id int64, capacityDelta, bookedDelta int) error {
	query := `
		UPDATE slots
		SET available_capacity = available_capacity + $1,
			booked_count = booked_count + $2,
			updated_at = $3
		WHERE id = $4 AND tenant_id = $5
			AND available_capacity + $1 >= 0
			AND available_capacity + $1 <= original_capacity
			AND booked_count + $2 >= 0
			AND booked_count + $2 <= original_capacity
	`

	result, err := tx.Exec(ctx, query, capacityDelta, bookedDelta, time.Now().UTC(), id, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1 AND tenant_id = $2)`,
			id, tenantID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.ErrSlotNotFound
		}
		return apperrors.ErrCapacityInvariantViolation
	}

	return nil
}

func (r *SlotRepositoryImpl) SetCapacity(ctx context.Context, tx pgx.Tx, tenantID string, id int64, available, booked int) error {
	query := `
		UPDATE slots
		SET available_capacity = $1, booked_count = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5
	`

	result, err := tx.Exec(ctx, query, available, booked, time.Now().UTC(), id, tenantID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrSlotNotFound
	}

	return nil
}
