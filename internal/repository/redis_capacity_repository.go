package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	pkgredis "github.com/ayush-ak-725/ticket-booking-service/pkg/redis"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed scripts/reserve_seats.lua
var reserveSeatsScript string

//go:embed scripts/release_seats.lua
var releaseSeatsScript string

//go:embed scripts/confirm_transfer.lua
var confirmTransferScript string

// Script names for caching
const (
	scriptReserveSeats    = "reserve_seats"
	scriptReleaseSeats    = "release_seats"
	scriptConfirmTransfer = "confirm_transfer"
)

const expiredHoldsTotalKey = "expired_holds_total"

// RedisCapacityRepository implements CapacityRepository using Redis
type RedisCapacityRepository struct {
	client *pkgredis.Client
}

// NewRedisCapacityRepository creates a new RedisCapacityRepository
func NewRedisCapacityRepository(client *pkgredis.Client) *RedisCapacityRepository {
	return &RedisCapacityRepository{client: client}
}

func heldSeatsKey(eventID string) string {
	return fmt.Sprintf("held_seats:%s", eventID)
}

func bookedSeatsKey(eventID string) string {
	return fmt.Sprintf("booked_seats:%s", eventID)
}

// LoadScripts loads all Lua scripts into Redis
func (r *RedisCapacityRepository) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptReserveSeats:    reserveSeatsScript,
		scriptReleaseSeats:    releaseSeatsScript,
		scriptConfirmTransfer: confirmTransferScript,
	}

	for name, script := range scripts {
		if _, err := r.client.LoadScript(ctx, name, script); err != nil {
			return fmt.Errorf("failed to load script %s: %w", name, err)
		}
	}

	return nil
}

// InitCounters initializes both counters for a new event to zero
func (r *RedisCapacityRepository) InitCounters(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.init_counters")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := r.client.Set(ctx, heldSeatsKey(eventID), 0, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to init held counter: %w", err)
	}
	if err := r.client.Set(ctx, bookedSeatsKey(eventID), 0, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to init booked counter: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Reserve atomically checks capacity and increments the held counter
// using a Lua script
func (r *RedisCapacityRepository) Reserve(ctx context.Context, eventID string, qty int, capacity int64) (*ReserveResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("quantity", qty),
		attribute.Int64("capacity", capacity),
	)

	keys := []string{heldSeatsKey(eventID), bookedSeatsKey(eventID)}
	args := []interface{}{
		qty,      // ARGV[1]: quantity
		capacity, // ARGV[2]: total seat capacity
	}

	result := r.client.EvalWithFallback(ctx, scriptReserveSeats, reserveSeatsScript, keys, args...)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return nil, fmt.Errorf("failed to execute reserve_seats script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse script result: %w", err)
	}

	if len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected result length")
		return nil, fmt.Errorf("unexpected script result length: %d", len(values))
	}

	success, _ := toInt64(values[0])
	available, _ := toInt64(values[1])

	span.SetAttributes(
		attribute.Bool("success", success == 1),
		attribute.Int64("available_seats", available),
	)
	span.SetStatus(codes.Ok, "")

	return &ReserveResult{
		Success:   success == 1,
		Available: available,
	}, nil
}

// Release decrements the held counter, clamped at zero
func (r *RedisCapacityRepository) Release(ctx context.Context, eventID string, qty int) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.release")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("quantity", qty),
	)

	keys := []string{heldSeatsKey(eventID)}
	args := []interface{}{
		qty, // ARGV[1]: quantity
	}

	result := r.client.EvalWithFallback(ctx, scriptReleaseSeats, releaseSeatsScript, keys, args...)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return 0, fmt.Errorf("failed to execute release_seats script: %w", result.Err())
	}

	held, err := result.Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to parse script result: %w", err)
	}

	span.SetAttributes(attribute.Int64("held_seats", held))
	span.SetStatus(codes.Ok, "")
	return held, nil
}

// ConfirmTransfer moves qty seats from held to booked in one script call
func (r *RedisCapacityRepository) ConfirmTransfer(ctx context.Context, eventID string, qty int) (*CapacityCounts, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.confirm_transfer")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("quantity", qty),
	)

	keys := []string{heldSeatsKey(eventID), bookedSeatsKey(eventID)}
	args := []interface{}{
		qty, // ARGV[1]: quantity
	}

	result := r.client.EvalWithFallback(ctx, scriptConfirmTransfer, confirmTransferScript, keys, args...)
	if result.Err() != nil {
		span.RecordError(result.Err())
		span.SetStatus(codes.Error, result.Err().Error())
		return nil, fmt.Errorf("failed to execute confirm_transfer script: %w", result.Err())
	}

	values, err := result.Slice()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse script result: %w", err)
	}

	if len(values) < 2 {
		span.SetStatus(codes.Error, "unexpected result length")
		return nil, fmt.Errorf("unexpected script result length: %d", len(values))
	}

	held, _ := toInt64(values[0])
	booked, _ := toInt64(values[1])

	span.SetAttributes(
		attribute.Int64("held_seats", held),
		attribute.Int64("booked_seats", booked),
	)
	span.SetStatus(codes.Ok, "")

	return &CapacityCounts{Held: held, Booked: booked}, nil
}

// GetCounts reads both counters in one round trip
func (r *RedisCapacityRepository) GetCounts(ctx context.Context, eventID string) (*CapacityCounts, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.get_counts")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	pipe := r.client.Pipeline()
	heldCmd := pipe.Get(ctx, heldSeatsKey(eventID))
	bookedCmd := pipe.Get(ctx, bookedSeatsKey(eventID))

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}

	held, err := parseCounter(heldCmd.Result())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse held counter: %w", err)
	}

	booked, err := parseCounter(bookedCmd.Result())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to parse booked counter: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("held_seats", held),
		attribute.Int64("booked_seats", booked),
	)
	span.SetStatus(codes.Ok, "")

	return &CapacityCounts{Held: held, Booked: booked}, nil
}

// DeleteCounters removes both counters for an event
func (r *RedisCapacityRepository) DeleteCounters(ctx context.Context, eventID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.delete_counters")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if err := r.client.Del(ctx, heldSeatsKey(eventID), bookedSeatsKey(eventID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete counters: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// AddExpired adds n to the monotonic expired-holds total
func (r *RedisCapacityRepository) AddExpired(ctx context.Context, n int64) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.add_expired")
	defer span.End()

	span.SetAttributes(attribute.Int64("count", n))

	total, err := r.client.IncrBy(ctx, expiredHoldsTotalKey, n).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to increment expired total: %w", err)
	}

	span.SetAttributes(attribute.Int64("expired_total", total))
	span.SetStatus(codes.Ok, "")
	return total, nil
}

// GetExpiredTotal reads the monotonic expired-holds total
func (r *RedisCapacityRepository) GetExpiredTotal(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.capacity.get_expired_total")
	defer span.End()

	total, err := parseCounter(r.client.Get(ctx, expiredHoldsTotalKey).Result())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to read expired total: %w", err)
	}

	span.SetAttributes(attribute.Int64("expired_total", total))
	span.SetStatus(codes.Ok, "")
	return total, nil
}

// parseCounter turns a counter read into an int64, treating a missing
// key as zero
func parseCounter(value string, err error) (int64, error) {
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

// Helper function to convert interface{} to int64
func toInt64(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case float64:
		return int64(val), true
	case string:
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Ensure RedisCapacityRepository implements CapacityRepository
var _ CapacityRepository = (*RedisCapacityRepository)(nil)
