package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Event errors
	ErrEventNotFound      = errors.New("event not found")
	ErrEventAlreadyExists = errors.New("event already exists")
	ErrInvalidEventID     = errors.New("invalid event id")
	ErrInvalidEventName   = errors.New("event name must be between 1 and 255 characters")
	ErrInvalidTotalSeats  = errors.New("total seats must be between 1 and 10000")

	// Hold errors
	ErrHoldNotFound    = errors.New("hold not found")
	ErrHoldExpired     = errors.New("hold has expired")
	ErrHoldNotActive   = errors.New("hold is not active")
	ErrInvalidHoldID   = errors.New("invalid hold id")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 100")

	// Booking errors
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingAlreadyExists = errors.New("booking already exists for this hold")
	ErrInvalidBookingID     = errors.New("invalid booking id")
	ErrInvalidPaymentToken  = errors.New("invalid payment token")

	// Availability errors
	ErrInsufficientSeats = errors.New("insufficient seats available")
)

// InsufficientSeatsError carries the requested and available counts so the
// API can tell callers how short they were. errors.Is matches it against
// ErrInsufficientSeats.
type InsufficientSeatsError struct {
	Requested int
	Available int64
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("insufficient seats available: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}

// NewInsufficientSeatsError creates an InsufficientSeatsError
func NewInsufficientSeatsError(requested int, available int64) error {
	return &InsufficientSeatsError{Requested: requested, Available: available}
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrHoldNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidEventName) ||
		errors.Is(err, ErrInvalidTotalSeats) ||
		errors.Is(err, ErrInvalidHoldID) ||
		errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidQuantity)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInsufficientSeats) ||
		errors.Is(err, ErrBookingAlreadyExists) ||
		errors.Is(err, ErrEventAlreadyExists) ||
		errors.Is(err, ErrHoldNotActive)
}

// IsExpiredError checks if the error is an expiration error
func IsExpiredError(err error) bool {
	return errors.Is(err, ErrHoldExpired)
}
