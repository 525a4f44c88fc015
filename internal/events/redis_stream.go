package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"slot-booking-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	consumerGroupName  = "booking-event-consumers"
	consumerNamePrefix = "consumer"
)

// RedisStreamConfig tunes redelivery behaviour; zero values fall back to
// defaults.
type RedisStreamConfig struct {
	ClaimMinIdleTime   time.Duration // pending entries older than this are reclaimed
	MaxRetryCount      int           // deliveries beyond this are dropped as poison
	ReadGroupBlockTime time.Duration // XReadGroup block duration
}

func defaultRedisStreamConfig() RedisStreamConfig {
	return RedisStreamConfig{
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
	}
}

// RedisStreamBus publishes booking events to a Redis Stream and serves
// them to a consumer group, so the booking path and the notification
// path share nothing but the stream.
type RedisStreamBus struct {
	client       *redis.Client
	streamKey    string
	groupName    string
	consumerName string
	cfg          RedisStreamConfig
}

// NewRedisStreamBus creates the stream and consumer group if missing.
// config may be nil for defaults.
func NewRedisStreamBus(client *redis.Client, streamKey, consumerID string, config *RedisStreamConfig) (*RedisStreamBus, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	cfg := defaultRedisStreamConfig()
	if config != nil {
		if config.ClaimMinIdleTime > 0 {
			cfg.ClaimMinIdleTime = config.ClaimMinIdleTime
		}
		if config.MaxRetryCount > 0 {
			cfg.MaxRetryCount = config.MaxRetryCount
		}
		if config.ReadGroupBlockTime > 0 {
			cfg.ReadGroupBlockTime = config.ReadGroupBlockTime
		}
	}
	bus := &RedisStreamBus{
		client:       client,
		streamKey:    streamKey,
		groupName:    consumerGroupName,
		consumerName: fmt.Sprintf("%s:%s", consumerNamePrefix, consumerID),
		cfg:          cfg,
	}
	ctx := context.Background()
	if err := bus.ensureConsumerGroup(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return bus, nil
}

func (b *RedisStreamBus) ensureConsumerGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.streamKey, b.groupName, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	return nil
}

func (b *RedisStreamBus) Publish(ctx context.Context, event *BookingEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.streamKey,
		ID:     "*",
		Values: map[string]interface{}{"event": string(payload)},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (b *RedisStreamBus) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		go b.runAutoClaim(ctx, out)
		b.runReadLoop(ctx, out)
	}()
	return out, nil
}

// runReadLoop reads only new messages (">"); deliveries that time out in
// the pending list are reclaimed by runAutoClaim.
func (b *RedisStreamBus) runReadLoop(ctx context.Context, out chan<- Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			b.readAndDeliver(ctx, out)
		}
	}
}

func (b *RedisStreamBus) readAndDeliver(ctx context.Context, out chan<- Delivery) {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.groupName,
		Consumer: b.consumerName,
		Streams:  []string{b.streamKey, ">"},
		Count:    10,
		Block:    b.cfg.ReadGroupBlockTime,
	}).Result()

	if err == redis.Nil {
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.WithComponent("events").Error("XReadGroup failed", zap.Error(err))
		time.Sleep(time.Second)
		return
	}

	for _, stream := range streams {
		if stream.Stream != b.streamKey {
			continue
		}
		for _, msg := range stream.Messages {
			d := b.newDelivery(ctx, msg)
			if d != nil {
				select {
				case out <- *d:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (b *RedisStreamBus) shouldRedeliver(ctx context.Context, messageID string) bool {
	n, err := b.getMessageRetryCount(ctx, messageID)
	if err != nil {
		logger.WithComponent("events").Warn("getMessageRetryCount failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	if n >= b.cfg.MaxRetryCount {
		logger.WithComponent("events").Warn("discard poison message",
			zap.String("message_id", messageID), zap.Int("retries", n), zap.Int("max_retries", b.cfg.MaxRetryCount))
		_ = b.client.XAck(ctx, b.streamKey, b.groupName, messageID).Err()
		return false
	}
	return true
}

func (b *RedisStreamBus) getMessageRetryCount(ctx context.Context, messageID string) (int, error) {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: b.streamKey,
		Group:  b.groupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return int(pending[0].RetryCount), nil
}

// runAutoClaim periodically reclaims messages stuck in another consumer's
// pending list.
func (b *RedisStreamBus) runAutoClaim(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(b.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	startID := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, nextID, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
				Stream:   b.streamKey,
				Group:    b.groupName,
				Consumer: b.consumerName,
				MinIdle:  b.cfg.ClaimMinIdleTime,
				Count:    10,
				Start:    startID,
			}).Result()

			if err != nil && err != redis.Nil {
				if ctx.Err() != nil {
					return
				}
				logger.WithComponent("events").Error("XAutoClaim failed", zap.Error(err))
				continue
			}
			if nextID != "" && nextID != "0-0" {
				startID = nextID
			} else {
				startID = "0-0"
			}

			for _, msg := range claimed {
				if !b.shouldRedeliver(ctx, msg.ID) {
					continue
				}
				d := b.newDelivery(ctx, msg)
				if d != nil {
					select {
					case out <- *d:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}
}

func (b *RedisStreamBus) newDelivery(ctx context.Context, msg redis.XMessage) *Delivery {
	payload, ok := msg.Values["event"].(string)
	if !ok {
		logger.WithComponent("events").Warn("invalid message: missing event field", zap.String("message_id", msg.ID))
		return nil
	}
	var event BookingEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		logger.WithComponent("events").Warn("unmarshal event failed", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	msgID := msg.ID
	return &Delivery{
		Event: &event,
		Ack: func() {
			if err := b.client.XAck(ctx, b.streamKey, b.groupName, msgID).Err(); err != nil {
				logger.WithComponent("events").Error("XAck failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if requeue {
				// Leave the message in the PEL; XAUTOCLAIM picks it up
				// after ClaimMinIdleTime, which gives delayed retry.
				logger.WithComponent("events").Info("message nack(requeue), will retry",
					zap.String("message_id", msgID), zap.Duration("claim_min_idle", b.cfg.ClaimMinIdleTime))
				return
			}
			if err := b.client.XAck(ctx, b.streamKey, b.groupName, msgID).Err(); err != nil {
				logger.WithComponent("events").Error("XAck discard failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
	}
}
