package repository

import (
	"context"
	"sync"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// EventRepository defines storage for events. The reservation core only
// reads from it; creation and listing serve the API surface.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context) ([]*domain.Event, error)
}

// MemoryEventRepository implements EventRepository using in-memory storage
type MemoryEventRepository struct {
	events map[string]*domain.Event
	order  []string // creation order, for stable listing
	mu     sync.RWMutex
}

// NewMemoryEventRepository creates a new in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
	}
}

// Create creates a new event record
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return domain.ErrEventAlreadyExists
	}

	// Clone to avoid external modifications
	e := *event
	r.events[event.ID] = &e
	r.order = append(r.order, event.ID)

	return nil
}

// GetByID retrieves an event by its ID
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, domain.ErrEventNotFound
	}

	e := *event
	return &e, nil
}

// List retrieves all events in creation order
func (r *MemoryEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Event, 0, len(r.order))
	for _, id := range r.order {
		if event, exists := r.events[id]; exists {
			e := *event
			result = append(result, &e)
		}
	}

	return result, nil
}

// Count returns the total number of events (for testing)
func (r *MemoryEventRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Ensure MemoryEventRepository implements EventRepository
var _ EventRepository = (*MemoryEventRepository)(nil)
