package apperrors

import "errors"

var (
	ErrSlotNotFound       = errors.New("slot not found")
	ErrShiftNotFound      = errors.New("shift not found")
	ErrLockNotFound       = errors.New("booking lock not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrQuotaEntryNotFound = errors.New("package quota entry not found")

	// Business-rule rejections, surfaced to the end user as-is.
	ErrCapacityExceeded  = errors.New("slot capacity exceeded")
	ErrInsufficientQuota = errors.New("insufficient package quota")
	ErrSlotUnavailable   = errors.New("slot is not available for booking")

	// The referenced lock is gone or past its expiry; the client must
	// re-acquire a lock and retry.
	ErrLockExpiredOrInvalid = errors.New("booking lock expired or invalid")

	ErrInvalidTransition = errors.New("invalid booking status transition")

	// An adjustment would drive a capacity counter out of bounds. With
	// correct lock discipline this never fires, so it is logged as a
	// defect rather than surfaced as a user error.
	ErrCapacityInvariantViolation = errors.New("slot capacity invariant violation")

	ErrInvalidInput        = errors.New("invalid input")
	ErrInternalServerError = errors.New("internal server error")
)
