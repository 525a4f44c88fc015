package model_test

import (
	"testing"

	"slot-booking-service/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_IsValid(t *testing.T) {
	valid := []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusCancelled,
		model.BookingStatusCompleted,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, model.BookingStatus("deleted").IsValid())
	assert.False(t, model.BookingStatus("").IsValid())
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    model.BookingStatus
		to      model.BookingStatus
		allowed bool
	}{
		{"pending to confirmed", model.BookingStatusPending, model.BookingStatusConfirmed, true},
		{"pending to cancelled", model.BookingStatusPending, model.BookingStatusCancelled, true},
		{"pending to completed", model.BookingStatusPending, model.BookingStatusCompleted, true},
		{"confirmed to cancelled", model.BookingStatusConfirmed, model.BookingStatusCancelled, true},
		{"confirmed to completed", model.BookingStatusConfirmed, model.BookingStatusCompleted, true},
		{"confirmed to pending", model.BookingStatusConfirmed, model.BookingStatusPending, false},
		{"cancelled to confirmed", model.BookingStatusCancelled, model.BookingStatusConfirmed, false},
		{"cancelled to completed", model.BookingStatusCancelled, model.BookingStatusCompleted, false},
		{"completed to cancelled", model.BookingStatusCompleted, model.BookingStatusCancelled, false},
		{"unknown source", model.BookingStatus("deleted"), model.BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_ActiveSet(t *testing.T) {
	assert.True(t, model.BookingStatusPending.IsActive())
	assert.True(t, model.BookingStatusConfirmed.IsActive())
	assert.False(t, model.BookingStatusCancelled.IsActive())
	assert.False(t, model.BookingStatusCompleted.IsActive())

	assert.False(t, model.BookingStatusPending.IsTerminal())
	assert.False(t, model.BookingStatusConfirmed.IsTerminal())
	assert.True(t, model.BookingStatusCancelled.IsTerminal())
	assert.True(t, model.BookingStatusCompleted.IsTerminal())
}
