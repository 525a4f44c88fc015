package worker

import (
	"context"

	"slot-booking-service/internal/events"
	"slot-booking-service/pkg/logger"

	"go.uber.org/zap"
)

// Notifier hands a booking fact to downstream delivery (tickets,
// invoices, messages). Implementations live outside the capacity core;
// the log-only one below is the in-repo default.
type Notifier interface {
	Notify(ctx context.Context, event *events.BookingEvent) error
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event *events.BookingEvent) error {
	logger.WithComponent("notifier").Info("booking event",
		zap.String("type", string(event.Type)),
		zap.Int64("booking_id", event.BookingID),
		zap.String("tenant_id", event.TenantID),
		zap.Int64("slot_id", event.SlotID),
		zap.Int("visitor_count", event.VisitorCount),
	)
	return nil
}

// NotificationWorker drains the booking event stream and feeds the
// Notifier. Failed deliveries are nacked for delayed redelivery.
type NotificationWorker struct {
	subscriber events.EventSubscriber
	notifier   Notifier
}

func NewNotificationWorker(subscriber events.EventSubscriber, notifier Notifier) *NotificationWorker {
	return &NotificationWorker{
		subscriber: subscriber,
		notifier:   notifier,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	deliveries, err := w.subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for d := range deliveries {
			if err := w.notifier.Notify(ctx, d.Event); err != nil {
				d.Nack(true)
				continue
			}
			d.Ack()
		}
	}()
	return nil
}
