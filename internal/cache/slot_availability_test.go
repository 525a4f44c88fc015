package cache_test

import (
	"context"
	"testing"
	"time"

	"slot-booking-service/internal/cache"
	"slot-booking-service/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (cache.SlotAvailabilityManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewSlotAvailabilityManager(client, time.Minute), mr
}

func newTestSlot() *model.Slot {
	return &model.Slot{
		ID:                42,
		TenantID:          "tenant-a",
		OriginalCapacity:  10,
		AvailableCapacity: 7,
		BookedCount:       3,
		IsAvailable:       true,
	}
}

func TestSlotAvailabilityManager_SetGet(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, newTestSlot()))

	avail, err := manager.Get(ctx, "tenant-a", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), avail.SlotID)
	assert.Equal(t, 10, avail.OriginalCapacity)
	assert.Equal(t, 7, avail.AvailableCapacity)
	assert.Equal(t, 3, avail.BookedCount)
	assert.True(t, avail.IsAvailable)
}

func TestSlotAvailabilityManager_Miss(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.Get(context.Background(), "tenant-a", 99)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSlotAvailabilityManager_TenantIsolation(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, newTestSlot()))

	_, err := manager.Get(ctx, "tenant-b", 42)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestSlotAvailabilityManager_Invalidate(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, newTestSlot()))
	require.NoError(t, manager.Invalidate(ctx, "tenant-a", 42))

	_, err := manager.Get(ctx, "tenant-a", 42)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	// invalidating an absent entry is fine
	assert.NoError(t, manager.Invalidate(ctx, "tenant-a", 42))
}

func TestSlotAvailabilityManager_EntryExpires(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, newTestSlot()))

	mr.FastForward(2 * time.Minute)

	_, err := manager.Get(ctx, "tenant-a", 42)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}
