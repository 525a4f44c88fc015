package repository

import (
	"context"
	"errors"
	"fmt"

	"slot-booking-service/internal/model"
	apperrors "slot-booking-service/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) (*model.Shift, error)
	FindByID(ctx context.Context, tenantID string, id int64) (*model.Shift, error)
}

type ShiftRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &ShiftRepositoryImpl{
		pool: pool,
	}
}

func toWeekdayArray(weekdays []int) []int32 {
	out := make([]int32, len(weekdays))
	for i, wd := range weekdays {
		out[i] = int32(wd)
	}
	return out
}

func fromWeekdayArray(weekdays []int32) []int {
	out := make([]int, len(weekdays))
	for i, wd := range weekdays {
		out[i] = int(wd)
	}
	return out
}

func (r *ShiftRepositoryImpl) Create(ctx context.Context, shift *model.Shift) (*model.Shift, error) {
	query := `
		INSERT INTO shifts (
			tenant_id, service_id, name, weekdays, start_minute, end_minute,
			slot_minutes, default_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		shift.TenantID, shift.ServiceID, shift.Name, toWeekdayArray(shift.Weekdays),
		shift.StartMinute, shift.EndMinute, shift.SlotMinutes, shift.DefaultCapacity,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	return shift, nil
}

func (r *ShiftRepositoryImpl) FindByID(ctx context.Context, tenantID string, id int64) (*model.Shift, error) {
	query := `
		SELECT id, tenant_id, service_id, name, weekdays, start_minute, end_minute,
			slot_minutes, default_capacity, created_at, updated_at
		FROM shifts
		WHERE id = $1 AND tenant_id = $2
	`

	var shift model.Shift
	var weekdays []int32
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&shift.ID,
		&shift.TenantID,
		&shift.ServiceID,
		&shift.Name,
		&weekdays,
		&shift.StartMinute,
		&shift.EndMinute,
		&shift.SlotMinutes,
		&shift.DefaultCapacity,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrShiftNotFound
		}
		return nil, err
	}

	shift.Weekdays = fromWeekdayArray(weekdays)
	return &shift, nil
}
