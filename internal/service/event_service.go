package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	"github.com/ayush-ak-725/ticket-booking-service/internal/dto"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// EventService defines the interface for event business logic
type EventService interface {
	// CreateEvent registers a new event with a fixed seat capacity
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event by ID
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// ListEvents retrieves all events in creation order
	ListEvents(ctx context.Context) ([]*dto.EventResponse, error)

	// GetSeatStatus reports live seat counts for an event
	GetSeatStatus(ctx context.Context, eventID string) (*dto.SeatStatusResponse, error)
}

// eventService implements EventService
type eventService struct {
	eventRepo    repository.EventRepository
	capacityRepo repository.CapacityRepository
}

// NewEventService creates a new event service
func NewEventService(eventRepo repository.EventRepository, capacityRepo repository.CapacityRepository) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		capacityRepo: capacityRepo,
	}
}

// CreateEvent registers a new event with a fixed seat capacity
func (s *eventService) CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, domain.ErrInvalidEventName
	}

	now := time.Now()
	event := &domain.Event{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		TotalSeats: req.TotalSeats,
		Status:     domain.EventStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.Int("total_seats", event.TotalSeats),
	)

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Seed the seat counters. A missing counter reads as zero, so a
	// failure here degrades nothing; first reserve creates the keys.
	if err := s.capacityRepo.InitCounters(ctx, event.ID); err != nil {
		span.RecordError(err)
		logger.Get().Warn(fmt.Sprintf("Failed to init seat counters for event %s: %v", event.ID, err))
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// GetEvent retrieves an event by ID
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// ListEvents retrieves all events in creation order
func (s *eventService) ListEvents(ctx context.Context) ([]*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	events, err := s.eventRepo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, dto.EventFromDomain(event))
	}

	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// GetSeatStatus reports live seat counts for an event. Counter reads
// are best-effort: an unreachable store degrades held/booked to zero
// rather than failing the request.
func (s *eventService) GetSeatStatus(ctx context.Context, eventID string) (*dto.SeatStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.seat_status")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	counts, err := s.capacityRepo.GetCounts(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		logger.Get().Warn(fmt.Sprintf("Failed to read seat counters for event %s: %v", eventID, err))
		counts = &repository.CapacityCounts{}
	}

	total := int64(event.TotalSeats)
	available := total - counts.Held - counts.Booked
	if available < 0 {
		available = 0
	}

	status := &domain.SeatStatus{
		Total:     total,
		Available: available,
		Held:      counts.Held,
		Booked:    counts.Booked,
	}

	span.SetAttributes(
		attribute.Int64("available", available),
		attribute.Int64("held", counts.Held),
		attribute.Int64("booked", counts.Booked),
	)
	span.SetStatus(codes.Ok, "")
	return dto.SeatStatusFromDomain(status), nil
}

// Ensure eventService implements EventService
var _ EventService = (*eventService)(nil)
