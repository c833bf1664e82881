package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/ayush-ak-725/ticket-booking-service/internal/metrics"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HoldService defines the interface for seat hold business logic
type HoldService interface {
	// CreateHold reserves seats on an event for a bounded time window.
	// ttlSeconds <= 0 selects the configured default; out-of-range
	// values are clamped, never rejected.
	CreateHold(ctx context.Context, req *dto.CreateHoldRequest, ttlSeconds int) (*dto.HoldResponse, error)

	// GetHold retrieves a hold by ID
	GetHold(ctx context.Context, holdID string) (*dto.HoldResponse, error)

	// ExpireHold forces an active hold to expire, releasing its seats.
	// A hold already in a terminal state reports success=false.
	ExpireHold(ctx context.Context, holdID string) (*dto.ExpireHoldResponse, error)

	// ExpireDueHolds expires every active hold whose deadline has
	// passed and returns how many were transitioned. Per-hold failures
	// are logged and skipped.
	ExpireDueHolds(ctx context.Context) (int, error)
}

// holdService implements HoldService
type holdService struct {
	holdRepo       repository.HoldRepository
	eventRepo      repository.EventRepository
	capacityRepo   repository.CapacityRepository
	eventPublisher EventPublisher
	defaultTTL     time.Duration
	minTTL         time.Duration
	maxTTL         time.Duration
	maxQuantity    int
}

// HoldServiceConfig contains configuration for the hold service
type HoldServiceConfig struct {
	DefaultTTL  time.Duration
	MinTTL      time.Duration
	MaxTTL      time.Duration
	MaxQuantity int
}

// NewHoldService creates a new hold service
func NewHoldService(
	holdRepo repository.HoldRepository,
	eventRepo repository.EventRepository,
	capacityRepo repository.CapacityRepository,
	eventPublisher EventPublisher,
	cfg *HoldServiceConfig,
) HoldService {
	defaultTTL := 120 * time.Second
	minTTL := 10 * time.Second
	maxTTL := 900 * time.Second
	maxQuantity := 100
	if cfg != nil {
		if cfg.DefaultTTL > 0 {
			defaultTTL = cfg.DefaultTTL
		}
		if cfg.MinTTL > 0 {
			minTTL = cfg.MinTTL
		}
		if cfg.MaxTTL > 0 {
			maxTTL = cfg.MaxTTL
		}
		if cfg.MaxQuantity > 0 {
			maxQuantity = cfg.MaxQuantity
		}
	}
	// Use NoOpEventPublisher if none provided
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &holdService{
		holdRepo:       holdRepo,
		eventRepo:      eventRepo,
		capacityRepo:   capacityRepo,
		eventPublisher: eventPublisher,
		defaultTTL:     defaultTTL,
		minTTL:         minTTL,
		maxTTL:         maxTTL,
		maxQuantity:    maxQuantity,
	}
}

// CreateHold reserves seats on an event for a bounded time window
func (s *holdService) CreateHold(ctx context.Context, req *dto.CreateHoldRequest, ttlSeconds int) (*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.hold.create")
	defer span.End()

	// Validate request
	if req == nil {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}
	if req.Qty <= 0 || req.Qty > s.maxQuantity {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}
	if req.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.Int("quantity", req.Qty),
	)

	event, err := s.eventRepo.GetByID(ctx, req.EventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ttl := s.clampTTL(ttlSeconds)
	now := time.Now()
	hold := &domain.Hold{
		ID:           uuid.New().String(),
		EventID:      event.ID,
		Quantity:     req.Qty,
		Status:       domain.HoldStatusActive,
		PaymentToken: generatePaymentToken(),
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The capacity check and the hold-record write commit together
	// under the event lock. The counter increment is the last step, so
	// a failure before it leaves no partial reservation behind.
	err = s.holdRepo.WithEventLock(event.ID, func() error {
		result, err := s.capacityRepo.Reserve(ctx, event.ID, req.Qty, int64(event.TotalSeats))
		if err != nil {
			return err
		}
		if !result.Success {
			return domain.NewInsufficientSeatsError(req.Qty, result.Available)
		}
		if err := s.holdRepo.Create(ctx, hold); err != nil {
			if _, releaseErr := s.capacityRepo.Release(ctx, event.ID, req.Qty); releaseErr != nil {
				logger.Get().Warn(fmt.Sprintf("Failed to roll back reservation for event %s: %v", event.ID, releaseErr))
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientSeats) {
			metrics.RecordCapacityRejection(ctx, event.ID, req.Qty)
			span.SetStatus(codes.Error, "insufficient seats")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Publish hold created event (non-blocking producer, failures are
	// recorded by the publisher itself)
	_ = s.eventPublisher.PublishHoldCreated(ctx, hold)

	// Record metrics
	metrics.RecordHoldCreated(ctx, event.ID, req.Qty)

	span.AddEvent("hold_created", trace.WithAttributes(
		attribute.String("hold_id", hold.ID),
		attribute.String("event_id", hold.EventID),
		attribute.Int("quantity", hold.Quantity),
		attribute.String("expires_at", hold.ExpiresAt.Format(time.RFC3339)),
	))

	span.SetAttributes(attribute.String("hold_id", hold.ID))
	span.SetStatus(codes.Ok, "")
	return dto.HoldFromDomain(hold), nil
}

// GetHold retrieves a hold by ID
func (s *holdService) GetHold(ctx context.Context, holdID string) (*dto.HoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.hold.get")
	defer span.End()

	span.SetAttributes(attribute.String("hold_id", holdID))

	if holdID == "" {
		span.SetStatus(codes.Error, "invalid hold_id")
		return nil, domain.ErrInvalidHoldID
	}

	hold, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.HoldFromDomain(hold), nil
}

// ExpireHold forces an active hold to expire, releasing its seats
func (s *holdService) ExpireHold(ctx context.Context, holdID string) (*dto.ExpireHoldResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.hold.expire")
	defer span.End()

	span.SetAttributes(attribute.String("hold_id", holdID))

	if holdID == "" {
		span.SetStatus(codes.Error, "invalid hold_id")
		return nil, domain.ErrInvalidHoldID
	}

	hold, err := s.holdRepo.GetByID(ctx, holdID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	expired, transitioned, err := s.expireOne(ctx, hold)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !transitioned {
		// Already expired or confirmed; reported, not an error
		span.SetAttributes(attribute.String("status", string(expired.Status)))
		span.SetStatus(codes.Ok, "")
		return &dto.ExpireHoldResponse{Success: false, HoldID: holdID}, nil
	}

	if _, err := s.capacityRepo.AddExpired(ctx, 1); err != nil {
		logger.Get().Warn(fmt.Sprintf("Failed to bump expired holds counter: %v", err))
	}

	_ = s.eventPublisher.PublishHoldExpired(ctx, expired)
	metrics.RecordHoldsExpired(ctx, expired.EventID, 1)

	span.AddEvent("hold_expired", trace.WithAttributes(
		attribute.String("hold_id", expired.ID),
		attribute.String("event_id", expired.EventID),
		attribute.Int("quantity", expired.Quantity),
	))
	span.SetStatus(codes.Ok, "")
	return &dto.ExpireHoldResponse{Success: true, HoldID: holdID}, nil
}

// ExpireDueHolds expires every active hold whose deadline has passed.
// The expired-holds counter is incremented once with the batch total.
func (s *holdService) ExpireDueHolds(ctx context.Context) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.hold.expire_due")
	defer span.End()

	candidates, err := s.holdRepo.ListExpiredCandidates(ctx, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	log := logger.Get()
	expired := 0
	for _, hold := range candidates {
		expiredHold, transitioned, err := s.expireOne(ctx, hold)
		if err != nil {
			log.Warn(fmt.Sprintf("Failed to expire hold %s: %v", hold.ID, err))
			metrics.RecordError(ctx, "expire_failed", "expire_due_holds")
			continue
		}
		if !transitioned {
			// Confirmed (or already expired) since the scan; skip
			continue
		}
		expired++
		_ = s.eventPublisher.PublishHoldExpired(ctx, expiredHold)
		metrics.RecordHoldsExpired(ctx, expiredHold.EventID, 1)
	}

	if expired > 0 {
		if _, err := s.capacityRepo.AddExpired(ctx, int64(expired)); err != nil {
			log.Warn(fmt.Sprintf("Failed to bump expired holds counter: %v", err))
		}
	}

	span.SetAttributes(
		attribute.Int("candidates", len(candidates)),
		attribute.Int("expired", expired),
	)
	span.SetStatus(codes.Ok, "")
	return expired, nil
}

// expireOne performs the Active -> Expired transition and the seat
// release under the event lock. The status re-check inside the lock is
// the tie-break against a concurrent confirmation: the loser observes
// a terminal status and reports transitioned=false.
func (s *holdService) expireOne(ctx context.Context, hold *domain.Hold) (*domain.Hold, bool, error) {
	var result *domain.Hold
	var transitioned bool

	err := s.holdRepo.WithEventLock(hold.EventID, func() error {
		h, ok, err := s.holdRepo.Expire(ctx, hold.ID)
		if err != nil {
			return err
		}
		result = h
		transitioned = ok
		if !ok {
			return nil
		}
		if _, err := s.capacityRepo.Release(ctx, hold.EventID, hold.Quantity); err != nil {
			// The transition stands even when the counter release fails
			logger.Get().Warn(fmt.Sprintf("Failed to release %d seats for event %s: %v", hold.Quantity, hold.EventID, err))
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, transitioned, nil
}

// clampTTL maps a requested TTL in seconds onto the allowed window
func (s *holdService) clampTTL(ttlSeconds int) time.Duration {
	if ttlSeconds <= 0 {
		return s.defaultTTL
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl < s.minTTL {
		return s.minTTL
	}
	if ttl > s.maxTTL {
		return s.maxTTL
	}
	return ttl
}

// generatePaymentToken generates the opaque confirmation credential
// returned with a hold
func generatePaymentToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(bytes)
}

// Ensure holdService implements HoldService
var _ HoldService = (*holdService)(nil)
