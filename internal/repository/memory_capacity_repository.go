package repository

import (
	"context"
	"sync"
)

// MemoryCapacityRepository implements CapacityRepository using in-memory
// counters. It keeps the service available when Redis is unreachable and
// backs unit tests; semantics match the Lua scripts exactly.
type MemoryCapacityRepository struct {
	held    map[string]int64
	booked  map[string]int64
	expired int64
	mu      sync.Mutex
}

// NewMemoryCapacityRepository creates a new in-memory capacity repository
func NewMemoryCapacityRepository() *MemoryCapacityRepository {
	return &MemoryCapacityRepository{
		held:   make(map[string]int64),
		booked: make(map[string]int64),
	}
}

// InitCounters initializes both counters for a new event to zero
func (r *MemoryCapacityRepository) InitCounters(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.held[eventID] = 0
	r.booked[eventID] = 0
	return nil
}

// Reserve checks held+booked+qty against capacity and increments held
// only when the check passes. The check and the increment happen under
// one lock so concurrent callers cannot both pass on the same seats.
func (r *MemoryCapacityRepository) Reserve(ctx context.Context, eventID string, qty int, capacity int64) (*ReserveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.held[eventID]
	booked := r.booked[eventID]

	available := capacity - held - booked
	if available < 0 {
		available = 0
	}

	if int64(qty) > available {
		return &ReserveResult{Success: false, Available: available}, nil
	}

	r.held[eventID] = held + int64(qty)

	available = capacity - r.held[eventID] - booked
	if available < 0 {
		available = 0
	}

	return &ReserveResult{Success: true, Available: available}, nil
}

// Release decrements held by qty, clamped at zero
func (r *MemoryCapacityRepository) Release(ctx context.Context, eventID string, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.held[eventID] - int64(qty)
	if held < 0 {
		held = 0
	}
	r.held[eventID] = held
	return held, nil
}

// ConfirmTransfer moves qty seats from held to booked under one lock
func (r *MemoryCapacityRepository) ConfirmTransfer(ctx context.Context, eventID string, qty int) (*CapacityCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.booked[eventID] += int64(qty)

	held := r.held[eventID] - int64(qty)
	if held < 0 {
		held = 0
	}
	r.held[eventID] = held

	return &CapacityCounts{Held: held, Booked: r.booked[eventID]}, nil
}

// GetCounts reads both counters; missing counters read as zero
func (r *MemoryCapacityRepository) GetCounts(ctx context.Context, eventID string) (*CapacityCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &CapacityCounts{
		Held:   r.held[eventID],
		Booked: r.booked[eventID],
	}, nil
}

// DeleteCounters removes both counters for an event
func (r *MemoryCapacityRepository) DeleteCounters(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.held, eventID)
	delete(r.booked, eventID)
	return nil
}

// AddExpired adds n to the monotonic expired-holds total
func (r *MemoryCapacityRepository) AddExpired(ctx context.Context, n int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.expired += n
	return r.expired, nil
}

// GetExpiredTotal reads the monotonic expired-holds total
func (r *MemoryCapacityRepository) GetExpiredTotal(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expired, nil
}

// Clear clears all counters (for testing)
func (r *MemoryCapacityRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.held = make(map[string]int64)
	r.booked = make(map[string]int64)
	r.expired = 0
}

// Ensure MemoryCapacityRepository implements CapacityRepository
var _ CapacityRepository = (*MemoryCapacityRepository)(nil)
