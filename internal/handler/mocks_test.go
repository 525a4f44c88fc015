package handler_test

import (
	"context"
	"time"

	"slot-booking-service/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type LockServiceMock struct {
	mock.Mock
}

func (m *LockServiceMock) AcquireLock(_ context.Context, tenantID string, req model.AcquireLockRequest) (*model.BookingLock, error) {
	args := m.Called(tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookingLock), args.Error(1)
}

func (m *LockServiceMock) ReleaseLock(_ context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(tenantID, id)
	return args.Error(0)
}

func (m *LockServiceMock) SweepExpiredLocks(_ context.Context) (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

type BookingServiceMock struct {
	mock.Mock
}

func (m *BookingServiceMock) CreateBooking(_ context.Context, tenantID string, req model.CreateBookingRequest) (*model.Booking, error) {
	args := m.Called(tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) TransitionStatus(_ context.Context, tenantID string, bookingID int64, newStatus model.BookingStatus) (*model.Booking, error) {
	args := m.Called(tenantID, bookingID, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) GetBookingByID(_ context.Context, tenantID string, id int64) (*model.Booking, error) {
	args := m.Called(tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *BookingServiceMock) ListBySlot(_ context.Context, tenantID string, slotID int64) ([]*model.Booking, error) {
	args := m.Called(tenantID, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Booking), args.Error(1)
}

func newTestLock(slotID int64, capacity int) *model.BookingLock {
	return &model.BookingLock{
		ID:               uuid.New(),
		TenantID:         "tenant-a",
		SlotID:           slotID,
		ReservedCapacity: capacity,
		ExpiresAt:        time.Now().UTC().Add(2 * time.Minute),
	}
}
