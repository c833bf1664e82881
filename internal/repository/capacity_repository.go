package repository

import (
	"context"
)

// ReserveResult represents the outcome of a capacity reservation.
// Available is the seat count after the reservation on success, or the
// count that made the request fail when Success is false.
type ReserveResult struct {
	Success   bool
	Available int64
}

// CapacityCounts is a snapshot of one event's seat counters
type CapacityCounts struct {
	Held   int64
	Booked int64
}

// CapacityRepository defines the counter store backing seat accounting.
// Implementations must make Reserve atomic with respect to the counters
// it reads, and must clamp every decrement at zero.
type CapacityRepository interface {
	// InitCounters initializes both counters for a new event to zero
	InitCounters(ctx context.Context, eventID string) error

	// Reserve checks held+booked+qty against capacity and increments
	// held only when the check passes
	Reserve(ctx context.Context, eventID string, qty int, capacity int64) (*ReserveResult, error)

	// Release decrements held by qty, clamped at zero, and returns the
	// new held count
	Release(ctx context.Context, eventID string, qty int) (int64, error)

	// ConfirmTransfer moves qty seats from held to booked in one step
	ConfirmTransfer(ctx context.Context, eventID string, qty int) (*CapacityCounts, error)

	// GetCounts reads both counters; missing counters read as zero
	GetCounts(ctx context.Context, eventID string) (*CapacityCounts, error)

	// DeleteCounters removes both counters for an event
	DeleteCounters(ctx context.Context, eventID string) error

	// AddExpired adds n to the monotonic expired-holds total and
	// returns the new total
	AddExpired(ctx context.Context, n int64) (int64, error)

	// GetExpiredTotal reads the monotonic expired-holds total
	GetExpiredTotal(ctx context.Context) (int64, error)
}
