package domain

import (
	"strings"
	"time"
)

// Booking represents a confirmed seat purchase. Bookings are terminal:
// once created they never change, and each hold produces at most one.
type Booking struct {
	ID           string    `json:"id"`
	HoldID       string    `json:"hold_id"`
	EventID      string    `json:"event_id"`
	Quantity     int       `json:"quantity"`
	PaymentToken string    `json:"payment_token"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate validates all booking fields
func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrInvalidBookingID
	}
	if strings.TrimSpace(b.HoldID) == "" {
		return ErrInvalidHoldID
	}
	if strings.TrimSpace(b.EventID) == "" {
		return ErrInvalidEventID
	}
	if b.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(b.PaymentToken) == "" {
		return ErrInvalidPaymentToken
	}
	return nil
}
