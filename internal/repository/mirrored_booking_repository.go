package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	pkgredis "github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
)

// MirroredBookingRepository wraps a BookingRepository and mirrors each
// new booking into a Redis snapshot under booking:{id}. Like hold
// snapshots these are write-only; the inner repository stays
// authoritative.
type MirroredBookingRepository struct {
	inner  BookingRepository
	client *pkgredis.Client
	ttl    time.Duration
}

// NewMirroredBookingRepository creates a new MirroredBookingRepository
func NewMirroredBookingRepository(inner BookingRepository, client *pkgredis.Client) *MirroredBookingRepository {
	return &MirroredBookingRepository{
		inner:  inner,
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
}

func bookingSnapshotKey(id string) string {
	return fmt.Sprintf("booking:%s", id)
}

// CreateOrGet delegates to the inner repository and mirrors the booking
// when this call created it
func (r *MirroredBookingRepository) CreateOrGet(ctx context.Context, booking *domain.Booking) (*domain.Booking, bool, error) {
	result, created, err := r.inner.CreateOrGet(ctx, booking)
	if err == nil && created {
		r.mirror(ctx, result)
	}
	return result, created, err
}

// GetByID retrieves a booking from the inner repository
func (r *MirroredBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.inner.GetByID(ctx, id)
}

// GetByHoldID retrieves a booking from the inner repository
func (r *MirroredBookingRepository) GetByHoldID(ctx context.Context, holdID string) (*domain.Booking, error) {
	return r.inner.GetByHoldID(ctx, holdID)
}

// Stats delegates to the inner repository
func (r *MirroredBookingRepository) Stats(ctx context.Context) (int64, int64, error) {
	return r.inner.Stats(ctx)
}

// mirror writes the booking snapshot, best effort
func (r *MirroredBookingRepository) mirror(ctx context.Context, booking *domain.Booking) {
	data, err := json.Marshal(booking)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, bookingSnapshotKey(booking.ID), data, r.ttl).Err()
}

// Ensure MirroredBookingRepository implements BookingRepository
var _ BookingRepository = (*MirroredBookingRepository)(nil)
