package domain

import (
	"strings"
	"time"
)

// Seat limits for a single event
const (
	MaxEventSeats      = 10000
	MaxEventNameLength = 255
)

// EventStatus represents the lifecycle status of an event
type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsValid checks if the event status is valid
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusActive, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s EventStatus) String() string {
	return string(s)
}

// Event represents a sellable event with a fixed seat capacity.
// TotalSeats is immutable after creation.
type Event struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	TotalSeats int         `json:"total_seats"`
	Status     EventStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Validate validates all event fields
func (e *Event) Validate() error {
	if err := e.ValidateID(); err != nil {
		return err
	}
	if err := e.ValidateName(); err != nil {
		return err
	}
	return e.ValidateTotalSeats()
}

// ValidateID validates the event ID
func (e *Event) ValidateID() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidEventID
	}
	return nil
}

// ValidateName validates the event name
func (e *Event) ValidateName() error {
	name := strings.TrimSpace(e.Name)
	if name == "" || len(name) > MaxEventNameLength {
		return ErrInvalidEventName
	}
	return nil
}

// ValidateTotalSeats validates the seat capacity
func (e *Event) ValidateTotalSeats() error {
	if e.TotalSeats <= 0 || e.TotalSeats > MaxEventSeats {
		return ErrInvalidTotalSeats
	}
	return nil
}

// IsActive checks if the event is open for holds
func (e *Event) IsActive() bool {
	return e.Status == EventStatusActive
}

// SeatStatus is a point-in-time snapshot of an event's seat counters.
// Available is derived and never negative.
type SeatStatus struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Held      int64 `json:"held"`
	Booked    int64 `json:"booked"`
}
