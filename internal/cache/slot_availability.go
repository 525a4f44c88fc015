package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"slot-booking-service/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no availability entry exists for a slot;
// callers fall back to the database and repopulate.
var ErrCacheMiss = errors.New("slot availability not cached")

// SlotAvailabilityManager keeps a read-path projection of slot capacity
// in Redis. The database row stays the source of truth; every capacity
// mutation invalidates the entry after its transaction commits.
type SlotAvailabilityManager interface {
	Get(ctx context.Context, tenantID string, slotID int64) (*model.SlotAvailability, error)
	Set(ctx context.Context, slot *model.Slot) error
	Invalidate(ctx context.Context, tenantID string, slotID int64) error
}

type SlotAvailabilityManagerImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSlotAvailabilityManager(client *redis.Client, ttl time.Duration) SlotAvailabilityManager {
	return &SlotAvailabilityManagerImpl{
		client: client,
		ttl:    ttl,
	}
}

func (m *SlotAvailabilityManagerImpl) getKey(tenantID string, slotID int64) string {
	return fmt.Sprintf("tenant:%s:slot:%d:availability", tenantID, slotID)
}

func (m *SlotAvailabilityManagerImpl) Get(ctx context.Context, tenantID string, slotID int64) (*model.SlotAvailability, error) {
	key := m.getKey(tenantID, slotID)
	result, err := m.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	original, err := strconv.Atoi(result["original"])
	if err != nil {
		return nil, fmt.Errorf("invalid original capacity: %v", err)
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return nil, fmt.Errorf("invalid available capacity: %v", err)
	}

	booked, err := strconv.Atoi(result["booked"])
	if err != nil {
		return nil, fmt.Errorf("invalid booked count: %v", err)
	}

	isAvailable, err := strconv.ParseBool(result["is_available"])
	if err != nil {
		return nil, fmt.Errorf("invalid availability flag: %v", err)
	}

	return &model.SlotAvailability{
		SlotID:            slotID,
		OriginalCapacity:  original,
		AvailableCapacity: available,
		BookedCount:       booked,
		IsAvailable:       isAvailable,
	}, nil
}

func (m *SlotAvailabilityManagerImpl) Set(ctx context.Context, slot *model.Slot) error {
	key := m.getKey(slot.TenantID, slot.ID)

	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"original":     slot.OriginalCapacity,
		"available":    slot.AvailableCapacity,
		"booked":       slot.BookedCount,
		"is_available": strconv.FormatBool(slot.IsAvailable),
	})
	pipe.Expire(ctx, key, m.ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (m *SlotAvailabilityManagerImpl) Invalidate(ctx context.Context, tenantID string, slotID int64) error {
	return m.client.Del(ctx, m.getKey(tenantID, slotID)).Err()
}
