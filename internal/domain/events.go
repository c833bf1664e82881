package domain

import (
	"time"
)

// SeatEventType identifies a seat lifecycle event
type SeatEventType string

const (
	SeatEventHoldCreated      SeatEventType = "hold.created"
	SeatEventHoldExpired      SeatEventType = "hold.expired"
	SeatEventBookingConfirmed SeatEventType = "booking.confirmed"
)

// SeatEventTopic is the default Kafka topic for seat lifecycle events
const SeatEventTopic = "box-office-events"

// SeatEventData carries the entity snapshot inside a seat event
type SeatEventData struct {
	EventID   string     `json:"event_id"`
	HoldID    string     `json:"hold_id"`
	BookingID string     `json:"booking_id,omitempty"`
	Quantity  int        `json:"quantity"`
	Status    string     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// SeatEvent is the envelope published to Kafka for every hold and booking
// transition
type SeatEvent struct {
	EventID   string         `json:"event_id"`
	EventType SeatEventType  `json:"event_type"`
	Version   int            `json:"version"`
	Timestamp time.Time      `json:"timestamp"`
	Data      *SeatEventData `json:"data"`
}

// NewHoldEvent builds a seat event from a hold transition
func NewHoldEvent(eventType SeatEventType, hold *Hold, eventID string) *SeatEvent {
	expiresAt := hold.ExpiresAt
	return &SeatEvent{
		EventID:   eventID,
		EventType: eventType,
		Version:   1,
		Timestamp: time.Now(),
		Data: &SeatEventData{
			EventID:   hold.EventID,
			HoldID:    hold.ID,
			Quantity:  hold.Quantity,
			Status:    hold.Status.String(),
			ExpiresAt: &expiresAt,
		},
	}
}

// NewBookingEvent builds a seat event from a booking confirmation
func NewBookingEvent(eventType SeatEventType, booking *Booking, eventID string) *SeatEvent {
	return &SeatEvent{
		EventID:   eventID,
		EventType: eventType,
		Version:   1,
		Timestamp: time.Now(),
		Data: &SeatEventData{
			EventID:   booking.EventID,
			HoldID:    booking.HoldID,
			BookingID: booking.ID,
			Quantity:  booking.Quantity,
			Status:    "confirmed",
		},
	}
}

// Topic returns the Kafka topic for this event
func (e *SeatEvent) Topic() string {
	return SeatEventTopic
}

// Key returns the partition key. Keying by the sellable event keeps all
// seat changes for one event on one partition, in order.
func (e *SeatEvent) Key() string {
	if e.Data == nil {
		return e.EventID
	}
	return e.Data.EventID
}
