package model

import "time"

// Shift is a recurring working window that slots are generated from:
// a set of weekdays plus a time-of-day window cut into fixed-length slots.
type Shift struct {
	ID              int64     `json:"id" db:"id"`
	TenantID        string    `json:"tenant_id" db:"tenant_id"`
	ServiceID       int64     `json:"service_id" db:"service_id"`
	Name            string    `json:"name" db:"name"`
	Weekdays        []int     `json:"weekdays" db:"weekdays"` // 0=Sunday .. 6=Saturday
	StartMinute     int       `json:"start_minute" db:"start_minute"`
	EndMinute       int       `json:"end_minute" db:"end_minute"`
	SlotMinutes     int       `json:"slot_minutes" db:"slot_minutes"`
	DefaultCapacity int       `json:"default_capacity" db:"default_capacity"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Shift) matchesWeekday(d time.Weekday) bool {
	for _, wd := range s.Weekdays {
		if int(d) == wd {
			return true
		}
	}
	return false
}

// ExpandShift cuts the shift's daily window into concrete slots for every
// matching date in [from, to], inclusive. Pure function of its inputs;
// persistence-side uniqueness makes re-running over an overlapping range
// a no-op for already generated slots. Dates are truncated to UTC days.
func ExpandShift(shift *Shift, from, to time.Time) []*Slot {
	slots := make([]*Slot, 0)
	if shift.SlotMinutes <= 0 || shift.EndMinute <= shift.StartMinute {
		return slots
	}

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !shift.matchesWeekday(day.Weekday()) {
			continue
		}
		for m := shift.StartMinute; m+shift.SlotMinutes <= shift.EndMinute; m += shift.SlotMinutes {
			start := day.Add(time.Duration(m) * time.Minute)
			slots = append(slots, &Slot{
				TenantID:          shift.TenantID,
				ShiftID:           shift.ID,
				SlotDate:          day,
				StartTime:         start,
				EndTime:           start.Add(time.Duration(shift.SlotMinutes) * time.Minute),
				OriginalCapacity:  shift.DefaultCapacity,
				AvailableCapacity: shift.DefaultCapacity,
				BookedCount:       0,
				IsAvailable:       true,
			})
		}
	}

	return slots
}
