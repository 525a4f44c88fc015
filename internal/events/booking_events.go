package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
)

// BookingEvent is the fact the core emits for downstream notification
// and invoicing consumers. They consume it asynchronously; the booking
// transaction never waits on them.
type BookingEvent struct {
	Type          EventType `json:"type"`
	BookingID     int64     `json:"booking_id"`
	PublicID      uuid.UUID `json:"public_id"`
	TenantID      string    `json:"tenant_id"`
	ServiceID     int64     `json:"service_id"`
	SlotID        int64     `json:"slot_id"`
	SlotStartTime time.Time `json:"slot_start_time"`
	VisitorCount  int       `json:"visitor_count"`
	CustomerID    *int64    `json:"customer_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Delivery struct {
	Event *BookingEvent
	Ack   func()
	Nack  func(requeue bool)
}

type EventPublisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}
