package repository

import (
	"context"
	"sync"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
)

// BookingRepository defines storage for bookings. At most one booking
// exists per hold; CreateOrGet is the only write path and enforces it.
type BookingRepository interface {
	// CreateOrGet persists the booking unless one already exists for
	// the same hold, in which case the existing booking is returned
	// and created is false.
	CreateOrGet(ctx context.Context, booking *domain.Booking) (*domain.Booking, bool, error)

	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByHoldID(ctx context.Context, holdID string) (*domain.Booking, error)

	// Stats returns the booking count and the total seats they cover
	Stats(ctx context.Context) (count int64, seats int64, err error)
}

// MemoryBookingRepository implements BookingRepository using in-memory storage
type MemoryBookingRepository struct {
	bookings map[string]*domain.Booking
	byHold   map[string]string // holdID -> bookingID
	mu       sync.RWMutex
}

// NewMemoryBookingRepository creates a new in-memory booking repository
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[string]*domain.Booking),
		byHold:   make(map[string]string),
	}
}

// CreateOrGet persists the booking, or returns the one already recorded
// for the same hold. The existence check and the insert share one lock
// so two concurrent calls for a hold converge on a single booking.
func (r *MemoryBookingRepository) CreateOrGet(ctx context.Context, booking *domain.Booking) (*domain.Booking, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, exists := r.byHold[booking.HoldID]; exists {
		existing := *r.bookings[existingID]
		return &existing, false, nil
	}

	// Clone to avoid external modifications
	b := *booking
	r.bookings[booking.ID] = &b
	r.byHold[booking.HoldID] = booking.ID

	created := b
	return &created, true, nil
}

// GetByID retrieves a booking by its ID
func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, exists := r.bookings[id]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

// GetByHoldID retrieves a booking by its source hold
func (r *MemoryBookingRepository) GetByHoldID(ctx context.Context, holdID string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookingID, exists := r.byHold[holdID]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	booking, exists := r.bookings[bookingID]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

// Stats returns the booking count and total booked seats
func (r *MemoryBookingRepository) Stats(ctx context.Context) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var seats int64
	for _, booking := range r.bookings {
		seats += int64(booking.Quantity)
	}

	return int64(len(r.bookings)), seats, nil
}

// Clear clears all bookings (for testing)
func (r *MemoryBookingRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings = make(map[string]*domain.Booking)
	r.byHold = make(map[string]string)
}

// Ensure MemoryBookingRepository implements BookingRepository
var _ BookingRepository = (*MemoryBookingRepository)(nil)
