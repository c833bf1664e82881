package dto

import (
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// CreateEventRequest represents request to create an event
type CreateEventRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=255"`
	TotalSeats int    `json:"total_seats" binding:"required,min=1,max=10000"`
}

// EventResponse represents an event in API response
type EventResponse struct {
	EventID    string    `json:"event_id"`
	Name       string    `json:"name"`
	TotalSeats int       `json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
}

// SeatStatusResponse represents live seat counts for an event
type SeatStatusResponse struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Held      int64 `json:"held"`
	Booked    int64 `json:"booked"`
}

// EventFromDomain converts domain Event to EventResponse
func EventFromDomain(e *domain.Event) *EventResponse {
	return &EventResponse{
		EventID:    e.ID,
		Name:       e.Name,
		TotalSeats: e.TotalSeats,
		CreatedAt:  e.CreatedAt,
	}
}

// SeatStatusFromDomain converts domain SeatStatus to SeatStatusResponse
func SeatStatusFromDomain(s *domain.SeatStatus) *SeatStatusResponse {
	return &SeatStatusResponse{
		Total:     s.Total,
		Available: s.Available,
		Held:      s.Held,
		Booked:    s.Booked,
	}
}
