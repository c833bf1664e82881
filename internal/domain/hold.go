package domain

import (
	"strings"
	"time"
)

// MaxHoldQuantity is the most seats a single hold may cover
const MaxHoldQuantity = 100

// HoldStatus represents the status of a seat hold
type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusConfirmed HoldStatus = "confirmed"
)

// IsValid checks if the status is a valid HoldStatus
func (s HoldStatus) IsValid() bool {
	switch s {
	case HoldStatusActive, HoldStatusExpired, HoldStatusConfirmed:
		return true
	}
	return false
}

// String returns the string representation of HoldStatus
func (s HoldStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status cannot change anymore
func (s HoldStatus) IsTerminal() bool {
	return s == HoldStatusExpired || s == HoldStatusConfirmed
}

// Hold represents a temporary seat reservation. A hold counts against the
// event's capacity from creation until it expires or is confirmed.
type Hold struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	Quantity     int        `json:"quantity"`
	Status       HoldStatus `json:"status"`
	PaymentToken string     `json:"payment_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate validates all hold fields
func (h *Hold) Validate() error {
	if err := h.ValidateID(); err != nil {
		return err
	}
	if err := h.ValidateEventID(); err != nil {
		return err
	}
	if err := h.ValidateQuantity(); err != nil {
		return err
	}
	if !h.Status.IsValid() {
		return ErrHoldNotActive
	}
	return nil
}

// ValidateID validates the hold ID
func (h *Hold) ValidateID() error {
	if strings.TrimSpace(h.ID) == "" {
		return ErrInvalidHoldID
	}
	return nil
}

// ValidateEventID validates the event ID
func (h *Hold) ValidateEventID() error {
	if strings.TrimSpace(h.EventID) == "" {
		return ErrInvalidEventID
	}
	return nil
}

// ValidateQuantity validates the hold quantity
func (h *Hold) ValidateQuantity() error {
	if h.Quantity <= 0 || h.Quantity > MaxHoldQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// IsActive checks if the hold is in active status
func (h *Hold) IsActive() bool {
	return h.Status == HoldStatusActive
}

// IsConfirmed checks if the hold has been converted into a booking
func (h *Hold) IsConfirmed() bool {
	return h.Status == HoldStatusConfirmed
}

// IsExpired checks if the hold's deadline has passed
func (h *Hold) IsExpired() bool {
	return h.IsExpiredAt(time.Now())
}

// IsExpiredAt checks if the hold is past its deadline at a specific time
func (h *Hold) IsExpiredAt(t time.Time) bool {
	return t.After(h.ExpiresAt)
}

// CanConfirm checks if the hold can still be confirmed
func (h *Hold) CanConfirm() bool {
	return h.Status == HoldStatusActive && !h.IsExpired()
}

// Confirm marks the hold as confirmed. Only active holds transition.
func (h *Hold) Confirm() error {
	if h.Status != HoldStatusActive {
		if h.Status == HoldStatusExpired {
			return ErrHoldExpired
		}
		return ErrHoldNotActive
	}
	h.Status = HoldStatusConfirmed
	h.UpdatedAt = time.Now()
	return nil
}

// Expire marks the hold as expired. Only active holds transition.
func (h *Hold) Expire() error {
	if h.Status != HoldStatusActive {
		return ErrHoldNotActive
	}
	h.Status = HoldStatusExpired
	h.UpdatedAt = time.Now()
	return nil
}

// TimeUntilExpiry returns the duration until the hold expires
func (h *Hold) TimeUntilExpiry() time.Duration {
	return time.Until(h.ExpiresAt)
}
