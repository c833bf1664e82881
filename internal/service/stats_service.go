package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// StatsService exposes aggregate counters for dashboards and load tests
type StatsService interface {
	// GetMetrics returns a point-in-time aggregate of the service state
	GetMetrics(ctx context.Context) (*dto.MetricsResponse, error)
}

// statsService implements StatsService
type statsService struct {
	eventRepo    repository.EventRepository
	holdRepo     repository.HoldRepository
	bookingRepo  repository.BookingRepository
	capacityRepo repository.CapacityRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	eventRepo repository.EventRepository,
	holdRepo repository.HoldRepository,
	bookingRepo repository.BookingRepository,
	capacityRepo repository.CapacityRepository,
) StatsService {
	return &statsService{
		eventRepo:    eventRepo,
		holdRepo:     holdRepo,
		bookingRepo:  bookingRepo,
		capacityRepo: capacityRepo,
	}
}

// GetMetrics returns a point-in-time aggregate of the service state
func (s *statsService) GetMetrics(ctx context.Context) (*dto.MetricsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.stats.metrics")
	defer span.End()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	totalBookings, totalSeats, err := s.bookingRepo.Stats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	activeHolds, err := s.holdRepo.CountActive(ctx, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// The expired-holds counter lives in the shared store; an
	// unreachable store degrades it to zero rather than failing the read
	expiredTotal, err := s.capacityRepo.GetExpiredTotal(ctx)
	if err != nil {
		span.RecordError(err)
		logger.Get().Warn(fmt.Sprintf("Failed to read expired holds counter: %v", err))
		expiredTotal = 0
	}

	span.SetStatus(codes.Ok, "")
	return &dto.MetricsResponse{
		TotalEvents:       int64(len(events)),
		TotalBookings:     totalBookings,
		ActiveHolds:       activeHolds,
		TotalSeatsBooked:  totalSeats,
		ExpiredHoldsTotal: expiredTotal,
	}, nil
}

// Ensure statsService implements StatsService
var _ StatsService = (*statsService)(nil)
