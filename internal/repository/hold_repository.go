package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// HoldRepository defines storage for seat holds plus the per-event
// serialization point every capacity-touching operation runs under.
type HoldRepository interface {
	Create(ctx context.Context, hold *domain.Hold) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)

	// ListExpiredCandidates returns active holds whose deadline is
	// before now. They stay active until Expire transitions them.
	ListExpiredCandidates(ctx context.Context, now time.Time) ([]*domain.Hold, error)

	// CountActive returns the number of active holds whose deadline has
	// not passed as of now. Clock-expired holds awaiting the sweeper are
	// excluded even though their status is still active.
	CountActive(ctx context.Context, now time.Time) (int64, error)

	// Expire transitions an active hold to expired. The bool reports
	// whether this call performed the transition; a hold that is
	// already terminal returns false with no error.
	Expire(ctx context.Context, id string) (*domain.Hold, bool, error)

	// Confirm transitions an active hold to confirmed, with the same
	// transition-reporting contract as Expire.
	Confirm(ctx context.Context, id string) (*domain.Hold, bool, error)

	// WithEventLock runs fn while holding the event's serialization
	// lock. Capacity checks and hold transitions for one event go
	// through this lock so concurrent callers observe counter state
	// one at a time.
	WithEventLock(eventID string, fn func() error) error
}

// MemoryHoldRepository implements HoldRepository using in-memory storage
type MemoryHoldRepository struct {
	holds      map[string]*domain.Hold
	mu         sync.RWMutex
	eventLocks sync.Map // map[string]*sync.Mutex
}

// NewMemoryHoldRepository creates a new in-memory hold repository
func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{
		holds: make(map[string]*domain.Hold),
	}
}

// Create creates a new hold record
func (r *MemoryHoldRepository) Create(ctx context.Context, hold *domain.Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Clone to avoid external modifications
	h := *hold
	r.holds[hold.ID] = &h

	return nil
}

// GetByID retrieves a hold by its ID
func (r *MemoryHoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hold, exists := r.holds[id]
	if !exists {
		return nil, domain.ErrHoldNotFound
	}

	h := *hold
	return &h, nil
}

// ListExpiredCandidates returns active holds past their deadline
func (r *MemoryHoldRepository) ListExpiredCandidates(ctx context.Context, now time.Time) ([]*domain.Hold, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Hold
	for _, hold := range r.holds {
		if hold.IsActive() && hold.IsExpiredAt(now) {
			h := *hold
			result = append(result, &h)
		}
	}

	return result, nil
}

// CountActive returns the number of active, unexpired holds as of now
func (r *MemoryHoldRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, hold := range r.holds {
		if hold.IsActive() && !hold.IsExpiredAt(now) {
			count++
		}
	}

	return count, nil
}

// Expire transitions an active hold to expired. The status is rechecked
// under the storage lock, so a hold that lost the race to a concurrent
// confirm reports false instead of transitioning twice.
func (r *MemoryHoldRepository) Expire(ctx context.Context, id string) (*domain.Hold, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hold, exists := r.holds[id]
	if !exists {
		return nil, false, domain.ErrHoldNotFound
	}

	if err := hold.Expire(); err != nil {
		h := *hold
		return &h, false, nil
	}

	h := *hold
	return &h, true, nil
}

// Confirm transitions an active hold to confirmed, rechecking status
// under the storage lock
func (r *MemoryHoldRepository) Confirm(ctx context.Context, id string) (*domain.Hold, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hold, exists := r.holds[id]
	if !exists {
		return nil, false, domain.ErrHoldNotFound
	}

	if err := hold.Confirm(); err != nil {
		h := *hold
		return &h, false, nil
	}

	h := *hold
	return &h, true, nil
}

// WithEventLock runs fn while holding the per-event serialization lock
func (r *MemoryHoldRepository) WithEventLock(eventID string, fn func() error) error {
	lock, _ := r.eventLocks.LoadOrStore(eventID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)

	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Clear clears all holds (for testing)
func (r *MemoryHoldRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holds = make(map[string]*domain.Hold)
}

// Count returns the total number of holds (for testing)
func (r *MemoryHoldRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.holds)
}

// Ensure MemoryHoldRepository implements HoldRepository
var _ HoldRepository = (*MemoryHoldRepository)(nil)
