package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingLock is a short-lived reservation token that holds slot capacity
// between the availability check and durable booking creation. Lock rows
// are never updated in place: they are consumed by booking creation,
// released explicitly, or swept after expiry.
type BookingLock struct {
	ID               uuid.UUID `json:"id" db:"id"`
	TenantID         string    `json:"tenant_id" db:"tenant_id"`
	SlotID           int64     `json:"slot_id" db:"slot_id"`
	ReservedCapacity int       `json:"reserved_capacity" db:"reserved_capacity"`
	SessionID        string    `json:"session_id" db:"session_id"`
	ExpiresAt        time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

func (l *BookingLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
