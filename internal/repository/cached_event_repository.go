package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	pkgredis "github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSnapshotTTL is how long entity snapshots live in Redis
const DefaultSnapshotTTL = time.Hour

// CachedEventRepository wraps an EventRepository with a Redis snapshot
// cache. The inner repository stays authoritative: a cache miss or a
// cache failure falls through to it, and a snapshot is written back on
// the way out. Cache errors never fail the operation.
type CachedEventRepository struct {
	inner  EventRepository
	client *pkgredis.Client
	ttl    time.Duration
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(inner EventRepository, client *pkgredis.Client) *CachedEventRepository {
	return &CachedEventRepository{
		inner:  inner,
		client: client,
		ttl:    DefaultSnapshotTTL,
	}
}

func eventSnapshotKey(id string) string {
	return fmt.Sprintf("event:%s", id)
}

// Create creates the event and writes its snapshot
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.cached_event.create")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", event.ID))

	if err := r.inner.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.writeSnapshot(ctx, span, event)
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an event, preferring the cached snapshot
func (r *CachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.cached_event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	data, err := r.client.Get(ctx, eventSnapshotKey(id)).Result()
	if err == nil {
		var event domain.Event
		if err := json.Unmarshal([]byte(data), &event); err == nil {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			span.SetStatus(codes.Ok, "")
			return &event, nil
		}
		// Corrupt snapshot, fall through to the inner repository
	}

	span.SetAttributes(attribute.Bool("cache_hit", false))

	event, err := r.inner.GetByID(ctx, id)
	if err != nil {
		if !domain.IsNotFoundError(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	r.writeSnapshot(ctx, span, event)
	span.SetStatus(codes.Ok, "")
	return event, nil
}

// List retrieves all events from the inner repository
func (r *CachedEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	return r.inner.List(ctx)
}

// writeSnapshot stores the event snapshot in Redis, best effort
func (r *CachedEventRepository) writeSnapshot(ctx context.Context, span trace.Span, event *domain.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return
	}
	if err := r.client.Set(ctx, eventSnapshotKey(event.ID), data, r.ttl).Err(); err != nil {
		span.RecordError(err)
	}
}

// Ensure CachedEventRepository implements EventRepository
var _ EventRepository = (*CachedEventRepository)(nil)
