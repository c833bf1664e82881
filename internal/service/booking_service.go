package service

import (
	"context"
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

// BookingService defines the interface for booking business logic
type BookingService interface {
	// CreateBooking converts an active hold into a permanent booking.
	// Repeat calls with the same hold return the same booking.
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)

	// GetBooking retrieves a booking by ID
	GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error)
}

// bookingService implements BookingService
type bookingService struct {
	bookingRepo    repository.BookingRepository
	holdRepo       repository.HoldRepository
	capacityRepo   repository.CapacityRepository
	eventPublisher EventPublisher
}

// NewBookingService creates a new booking service
func NewBookingService(
	bookingRepo repository.BookingRepository,
	holdRepo repository.HoldRepository,
	capacityRepo repository.CapacityRepository,
	eventPublisher EventPublisher,
) BookingService {
	// Use NoOpEventPublisher if none provided
	if eventPublisher == nil {
		eventPublisher = NewNoOpEventPublisher()
	}
	return &bookingService{
		bookingRepo:    bookingRepo,
		holdRepo:       holdRepo,
		capacityRepo:   capacityRepo,
		eventPublisher: eventPublisher,
	}
}

// CreateBooking converts an active hold into a permanent booking
func (s *bookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create")
	defer span.End()

	// Validate request
	if req == nil || req.HoldID == "" {
		span.SetStatus(codes.Error, "invalid hold_id")
		return nil, domain.ErrInvalidHoldID
	}
	if req.PaymentToken == "" {
		span.SetStatus(codes.Error, "invalid payment_token")
		return nil, domain.ErrInvalidPaymentToken
	}

	span.SetAttributes(attribute.String("hold_id", req.HoldID))

	hold, err := s.holdRepo.GetByID(ctx, req.HoldID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// A hold past its deadline is rejected even before the sweeper
	// reaches it. Confirmed holds skip the clock so that repeat calls
	// stay idempotent after the window closes.
	if hold.Status == domain.HoldStatusExpired {
		span.SetStatus(codes.Error, "hold expired")
		return nil, domain.ErrHoldExpired
	}
	if hold.IsActive() && hold.IsExpired() {
		span.SetStatus(codes.Error, "hold expired")
		return nil, domain.ErrHoldExpired
	}

	if hold.PaymentToken != req.PaymentToken {
		span.SetStatus(codes.Error, "payment token mismatch")
		return nil, domain.ErrInvalidPaymentToken
	}

	// Idempotency: one booking per hold
	if existing, err := s.bookingRepo.GetByHoldID(ctx, hold.ID); err == nil {
		span.SetAttributes(attribute.String("booking_id", existing.ID), attribute.Bool("idempotent", true))
		span.SetStatus(codes.Ok, "")
		return dto.BookingFromDomain(existing), nil
	} else if !errors.Is(err, domain.ErrBookingNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Commit point: the status re-check inside the event lock decides
	// the race against the expiry sweeper. Losing it means the seats
	// were already released and no booking is created.
	err = s.holdRepo.WithEventLock(hold.EventID, func() error {
		fresh, ok, err := s.holdRepo.Confirm(ctx, hold.ID)
		if err != nil {
			return err
		}
		if !ok {
			if fresh.Status == domain.HoldStatusConfirmed {
				// A concurrent call won the transition; converge on
				// its booking below
				return nil
			}
			return domain.ErrHoldExpired
		}
		if _, err := s.capacityRepo.ConfirmTransfer(ctx, hold.EventID, hold.Quantity); err != nil {
			// The confirmation stands even when the counter transfer fails
			logger.Get().Warn(fmt.Sprintf("Failed to transfer %d seats to booked for event %s: %v", hold.Quantity, hold.EventID, err))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrHoldExpired) {
			span.SetStatus(codes.Error, "hold expired")
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	now := time.Now()
	booking := &domain.Booking{
		ID:           uuid.New().String(),
		HoldID:       hold.ID,
		EventID:      hold.EventID,
		Quantity:     hold.Quantity,
		PaymentToken: req.PaymentToken,
		CreatedAt:    now,
	}

	created, createdNew, err := s.bookingRepo.CreateOrGet(ctx, booking)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if createdNew {
		// Publish booking confirmed event (non-blocking producer)
		_ = s.eventPublisher.PublishBookingConfirmed(ctx, created)

		// Record metrics
		holdAge := now.Sub(hold.CreatedAt).Seconds()
		metrics.RecordBookingConfirmed(ctx, hold.EventID, holdAge)

		span.AddEvent("booking_confirmed", trace.WithAttributes(
			attribute.String("booking_id", created.ID),
			attribute.String("hold_id", hold.ID),
			attribute.String("event_id", hold.EventID),
			attribute.Int("quantity", hold.Quantity),
			attribute.Float64("hold_age_seconds", holdAge),
		))
	}

	span.SetAttributes(attribute.String("booking_id", created.ID))
	span.SetStatus(codes.Ok, "")
	return dto.BookingFromDomain(created), nil
}

// GetBooking retrieves a booking by ID
func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()

	span.SetAttributes(attribute.String("booking_id", bookingID))

	if bookingID == "" {
		span.SetStatus(codes.Error, "invalid booking_id")
		return nil, domain.ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.BookingFromDomain(booking), nil
}

// Ensure bookingService implements BookingService
var _ BookingService = (*bookingService)(nil)
