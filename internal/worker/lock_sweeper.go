package worker

import (
	"context"
	"time"

	"slot-booking-service/pkg/logger"

	"go.uber.org/zap"
)

// Sweeper is the slice of LockService the worker needs.
type Sweeper interface {
	SweepExpiredLocks(ctx context.Context) (int64, error)
}

// LockSweeper purges expired booking locks on a timer, independent of
// request flow, so an abandoned lock never withholds capacity past its
// TTL.
type LockSweeper struct {
	sweeper  Sweeper
	interval time.Duration
}

func NewLockSweeper(sweeper Sweeper, interval time.Duration) *LockSweeper {
	return &LockSweeper{
		sweeper:  sweeper,
		interval: interval,
	}
}

func (w *LockSweeper) Start(ctx context.Context) {
	log := logger.WithComponent("lock_sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Info("lock sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("lock sweeper stopped")
			return
		case <-ticker.C:
			swept, err := w.sweeper.SweepExpiredLocks(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error("sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				log.Info("swept expired locks", zap.Int64("count", swept))
			}
		}
	}
}
