package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"slot-booking-service/internal/model"
	apperrors "slot-booking-service/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockService_AcquireLock(t *testing.T) {
	ctx := context.Background()

	t.Run("Reserves within capacity", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 5)

		lock, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 3})
		require.NoError(t, err)
		assert.Equal(t, slotID, lock.SlotID)
		assert.Equal(t, 3, lock.ReservedCapacity)
		assert.False(t, lock.Expired(time.Now().UTC()))
	})

	t.Run("Denies when locks and bookings cover capacity", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 5)

		_, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 3})
		require.NoError(t, err)

		_, err = env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 3})
		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)

		// A request that fits the remainder still goes through.
		_, err = env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 2})
		assert.NoError(t, err)
	})

	t.Run("Expired locks do not count against capacity", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 2)
		seedExpiredLock(t, env.pool, testTenant, slotID, 2, uuid.NewString())

		_, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 2})
		assert.NoError(t, err)
	})

	t.Run("Fully booked slot", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 10)
		_, err := env.pool.Exec(ctx,
			`UPDATE slots SET available_capacity = 0, booked_count = 10 WHERE id = $1`, slotID)
		require.NoError(t, err)

		_, err = env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 1})
		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
	})

	t.Run("Unknown slot", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: 12345, VisitorCount: 1})
		assert.ErrorIs(t, err, apperrors.ErrSlotNotFound)
	})

	t.Run("Tenant isolation", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 5)

		_, err := env.locks.AcquireLock(ctx, "tenant-b", model.AcquireLockRequest{SlotID: slotID, VisitorCount: 1})
		assert.ErrorIs(t, err, apperrors.ErrSlotNotFound)
	})

	t.Run("Closed slot", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 5)
		require.NoError(t, env.slotRepo.SetAvailability(ctx, testTenant, slotID, false))

		_, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 1})
		assert.ErrorIs(t, err, apperrors.ErrSlotUnavailable)
	})
}

// Two goroutines race for the last unit of capacity; the slot row lock
// must let exactly one through.
func TestLockService_AcquireLock_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	slotID := seedSlot(t, env.pool, testTenant, 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.locks.AcquireLock(context.Background(), testTenant,
				model.AcquireLockRequest{SlotID: slotID, VisitorCount: 1})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, denied int
	for err := range results {
		if err == nil {
			succeeded++
		} else if assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded) {
			denied++
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, denied)
}

func TestLockService_ReleaseLock(t *testing.T) {
	ctx := context.Background()

	t.Run("Frees reserved capacity", func(t *testing.T) {
		env := newTestEnv(t)
		slotID := seedSlot(t, env.pool, testTenant, 2)

		lock, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 2})
		require.NoError(t, err)

		require.NoError(t, env.locks.ReleaseLock(ctx, testTenant, lock.ID))

		_, err = env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 2})
		assert.NoError(t, err)
	})

	t.Run("Unknown lock", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.locks.ReleaseLock(ctx, testTenant, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrLockNotFound)
	})
}

func TestLockService_SweepExpiredLocks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	slotID := seedSlot(t, env.pool, testTenant, 5)

	seedExpiredLock(t, env.pool, testTenant, slotID, 2, uuid.NewString())
	seedExpiredLock(t, env.pool, testTenant, slotID, 1, uuid.NewString())
	live, err := env.locks.AcquireLock(ctx, testTenant, model.AcquireLockRequest{SlotID: slotID, VisitorCount: 1})
	require.NoError(t, err)

	swept, err := env.locks.SweepExpiredLocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), swept)

	// The live lock survives.
	err = env.locks.ReleaseLock(ctx, testTenant, live.ID)
	assert.NoError(t, err)
}
