package dto

import (
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// CreateHoldRequest represents request to hold seats on an event
type CreateHoldRequest struct {
	EventID string `json:"event_id" binding:"required"`
	Qty     int    `json:"qty" binding:"required,min=1,max=100"`
}

// HoldResponse represents a seat hold in API response
type HoldResponse struct {
	HoldID       string    `json:"hold_id"`
	EventID      string    `json:"event_id"`
	Qty          int       `json:"qty"`
	ExpiresAt    time.Time `json:"expires_at"`
	PaymentToken string    `json:"payment_token"`
	Status       string    `json:"status"`
}

// ExpireHoldResponse represents response after forcing a hold to expire
type ExpireHoldResponse struct {
	Success bool   `json:"success"`
	HoldID  string `json:"hold_id"`
}

// HoldFromDomain converts domain Hold to HoldResponse
func HoldFromDomain(h *domain.Hold) *HoldResponse {
	return &HoldResponse{
		HoldID:       h.ID,
		EventID:      h.EventID,
		Qty:          h.Quantity,
		ExpiresAt:    h.ExpiresAt,
		PaymentToken: h.PaymentToken,
		Status:       string(h.Status),
	}
}
