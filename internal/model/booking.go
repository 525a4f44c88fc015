package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus follows pending -> confirmed|cancelled|completed and
// confirmed -> cancelled|completed; cancelled and completed are terminal.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsActive reports whether the status holds slot capacity and package
// quota. Capacity effects fire on entering or leaving the active set,
// not on any particular path through it.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// CanTransitionTo checks whether a transition to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted},
		BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
		BookingStatusCancelled: {},
		BookingStatusCompleted: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking is a durable capacity commitment against a slot. Bookings are
// never physically deleted; terminal rows stay for audit and reporting.
// package_covered_qty + paid_qty == visitor_count always holds.
type Booking struct {
	ID                    int64         `json:"id" db:"id"`
	BookingID             uuid.UUID     `json:"booking_id" db:"booking_id"`
	TenantID              string        `json:"tenant_id" db:"tenant_id"`
	ServiceID             int64         `json:"service_id" db:"service_id"`
	SlotID                int64         `json:"slot_id" db:"slot_id"`
	CustomerID            *int64        `json:"customer_id,omitempty" db:"customer_id"`
	PackageSubscriptionID *int64        `json:"package_subscription_id,omitempty" db:"package_subscription_id"`
	VisitorCount          int           `json:"visitor_count" db:"visitor_count"`
	TotalPrice            float64       `json:"total_price" db:"total_price"`
	PackageCoveredQty     int           `json:"package_covered_qty" db:"package_covered_qty"`
	PaidQty               int           `json:"paid_qty" db:"paid_qty"`
	Status                BookingStatus `json:"status" db:"status"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}

// AcquireLockRequest reserves slot capacity ahead of booking creation.
type AcquireLockRequest struct {
	SlotID       int64  `json:"slot_id" binding:"required"`
	VisitorCount int    `json:"visitor_count" binding:"required,min=1"`
	TTLSeconds   int    `json:"ttl_seconds" binding:"omitempty,min=1"`
	SessionID    string `json:"session_id"`
}

// CreateBookingRequest converts a held lock into a pending booking.
type CreateBookingRequest struct {
	LockID                uuid.UUID `json:"lock_id" binding:"required"`
	SlotID                int64     `json:"slot_id" binding:"required"`
	ServiceID             int64     `json:"service_id" binding:"required"`
	VisitorCount          int       `json:"visitor_count" binding:"required,min=1"`
	CustomerID            *int64    `json:"customer_id"`
	PackageSubscriptionID *int64    `json:"package_subscription_id"`
	RequireFullCoverage   bool      `json:"require_full_coverage"`
	UnitPrice             float64   `json:"unit_price" binding:"omitempty,min=0"`
}

// TransitionStatusRequest moves a booking to a new lifecycle status.
type TransitionStatusRequest struct {
	Status BookingStatus `json:"status" binding:"required"`
}
