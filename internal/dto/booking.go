package dto

import (
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// CreateBookingRequest represents request to confirm a hold into a booking
type CreateBookingRequest struct {
	HoldID       string `json:"hold_id" binding:"required"`
	PaymentToken string `json:"payment_token" binding:"required"`
}

// BookingResponse represents a booking in API response
type BookingResponse struct {
	BookingID string    `json:"booking_id"`
	HoldID    string    `json:"hold_id"`
	EventID   string    `json:"event_id"`
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingFromDomain converts domain Booking to BookingResponse
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		BookingID: b.ID,
		HoldID:    b.HoldID,
		EventID:   b.EventID,
		Qty:       b.Quantity,
		CreatedAt: b.CreatedAt,
	}
}
