package model

import "time"

// Slot is a bookable time window with finite capacity. The capacity
// triple obeys available_capacity + booked_count == original_capacity
// whenever no lock is outstanding.
type Slot struct {
	ID                int64     `json:"id" db:"id"`
	TenantID          string    `json:"tenant_id" db:"tenant_id"`
	ShiftID           int64     `json:"shift_id" db:"shift_id"`
	SlotDate          time.Time `json:"slot_date" db:"slot_date"`
	StartTime         time.Time `json:"start_time" db:"start_time"`
	EndTime           time.Time `json:"end_time" db:"end_time"`
	OriginalCapacity  int       `json:"original_capacity" db:"original_capacity"`
	AvailableCapacity int       `json:"available_capacity" db:"available_capacity"`
	BookedCount       int       `json:"booked_count" db:"booked_count"`
	IsAvailable       bool      `json:"is_available" db:"is_available"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ClaimableCapacity is what a new lock may still reserve: original
// capacity minus durable bookings minus capacity held by unexpired locks.
func (s *Slot) ClaimableCapacity(activeLockReserved int) int {
	return s.OriginalCapacity - s.BookedCount - activeLockReserved
}

// SlotAvailability is the read-path projection served from the cache.
type SlotAvailability struct {
	SlotID            int64 `json:"slot_id"`
	OriginalCapacity  int   `json:"original_capacity"`
	AvailableCapacity int   `json:"available_capacity"`
	BookedCount       int   `json:"booked_count"`
	IsAvailable       bool  `json:"is_available"`
}

// CapacityCorrection records one slot repaired by reconciliation.
type CapacityCorrection struct {
	SlotID       int64 `json:"slot_id"`
	OldAvailable int   `json:"old_available_capacity"`
	NewAvailable int   `json:"new_available_capacity"`
	OldBooked    int   `json:"old_booked_count"`
	NewBooked    int   `json:"new_booked_count"`
}

// RecalculationReport summarizes a reconciliation run.
type RecalculationReport struct {
	SlotsChecked int                  `json:"slots_checked"`
	SlotsUpdated int                  `json:"slots_updated"`
	Corrections  []CapacityCorrection `json:"corrections"`
}
