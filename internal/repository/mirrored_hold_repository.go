package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	pkgredis "github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
)

// MirroredHoldRepository wraps a HoldRepository and mirrors every hold
// mutation into a Redis snapshot under hold:{id}. Snapshots exist for
// operational inspection and are never read back: hold state lives in
// the inner repository, which stays authoritative.
type MirroredHoldRepository struct {
	inner  HoldRepository
	client *pkgredis.Client
	ttl    time.Duration
}

// NewMirroredHoldRepository creates a new MirroredHoldRepository
func NewMirroredHoldRepository(inner HoldRepository, client *pkgredis.Client) *MirroredHoldRepository {
	return &MirroredHoldRepository{
		inner:  inner,
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
}

func holdSnapshotKey(id string) string {
	return fmt.Sprintf("hold:%s", id)
}

// Create creates the hold and mirrors its snapshot
func (r *MirroredHoldRepository) Create(ctx context.Context, hold *domain.Hold) error {
	if err := r.inner.Create(ctx, hold); err != nil {
		return err
	}
	r.mirror(ctx, hold)
	return nil
}

// GetByID retrieves a hold from the inner repository
func (r *MirroredHoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	return r.inner.GetByID(ctx, id)
}

// ListExpiredCandidates delegates to the inner repository
func (r *MirroredHoldRepository) ListExpiredCandidates(ctx context.Context, now time.Time) ([]*domain.Hold, error) {
	return r.inner.ListExpiredCandidates(ctx, now)
}

// CountActive delegates to the inner repository
func (r *MirroredHoldRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	return r.inner.CountActive(ctx, now)
}

// Expire transitions the hold and mirrors the new state when the
// transition happened
func (r *MirroredHoldRepository) Expire(ctx context.Context, id string) (*domain.Hold, bool, error) {
	hold, transitioned, err := r.inner.Expire(ctx, id)
	if err == nil && transitioned {
		r.mirror(ctx, hold)
	}
	return hold, transitioned, err
}

// Confirm transitions the hold and mirrors the new state when the
// transition happened
func (r *MirroredHoldRepository) Confirm(ctx context.Context, id string) (*domain.Hold, bool, error) {
	hold, transitioned, err := r.inner.Confirm(ctx, id)
	if err == nil && transitioned {
		r.mirror(ctx, hold)
	}
	return hold, transitioned, err
}

// WithEventLock delegates to the inner repository's serialization lock
func (r *MirroredHoldRepository) WithEventLock(eventID string, fn func() error) error {
	return r.inner.WithEventLock(eventID, fn)
}

// mirror writes the hold snapshot, best effort
func (r *MirroredHoldRepository) mirror(ctx context.Context, hold *domain.Hold) {
	data, err := json.Marshal(hold)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, holdSnapshotKey(hold.ID), data, r.ttl).Err()
}

// Ensure MirroredHoldRepository implements HoldRepository
var _ HoldRepository = (*MirroredHoldRepository)(nil)
