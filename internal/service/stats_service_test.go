package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	"github.com/ayush-ak-725/ticket-booking-service/internal/repository"
)

func TestStatsService_GetMetrics(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	holds := repository.NewMemoryHoldRepository()
	bookings := repository.NewMemoryBookingRepository()
	capacity := repository.NewMemoryCapacityRepository()
	svc := NewStatsService(events, holds, bookings, capacity)
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"event-1", "event-2"} {
		err := events.Create(ctx, &domain.Event{
			ID: id, Name: "Event " + id, TotalSeats: 100,
			Status: domain.EventStatusActive, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("Failed to seed event: %v", err)
		}
	}

	// Two live holds, one past its deadline awaiting the sweeper
	seedHold := func(id string, expiresAt time.Time) {
		err := holds.Create(ctx, &domain.Hold{
			ID: id, EventID: "event-1", Quantity: 2,
			Status: domain.HoldStatusActive, PaymentToken: "tok-" + id,
			ExpiresAt: expiresAt, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("Failed to seed hold: %v", err)
		}
	}
	seedHold("hold-1", now.Add(time.Minute))
	seedHold("hold-2", now.Add(time.Hour))
	seedHold("hold-3", now.Add(-time.Minute))

	for i, qty := range []int{3, 4} {
		_, _, err := bookings.CreateOrGet(ctx, &domain.Booking{
			ID: "booking-" + string(rune('1'+i)), HoldID: "done-" + string(rune('1'+i)),
			EventID: "event-1", Quantity: qty, PaymentToken: "tok", CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("Failed to seed booking: %v", err)
		}
	}

	if _, err := capacity.AddExpired(ctx, 5); err != nil {
		t.Fatalf("Failed to seed expired counter: %v", err)
	}

	metrics, err := svc.GetMetrics(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if metrics.TotalEvents != 2 {
		t.Errorf("Expected 2 events, got %d", metrics.TotalEvents)
	}
	if metrics.TotalBookings != 2 {
		t.Errorf("Expected 2 bookings, got %d", metrics.TotalBookings)
	}
	if metrics.ActiveHolds != 2 {
		t.Errorf("Expected 2 active holds, got %d", metrics.ActiveHolds)
	}
	if metrics.TotalSeatsBooked != 7 {
		t.Errorf("Expected 7 seats booked, got %d", metrics.TotalSeatsBooked)
	}
	if metrics.ExpiredHoldsTotal != 5 {
		t.Errorf("Expected 5 expired, got %d", metrics.ExpiredHoldsTotal)
	}
}

func TestStatsService_GetMetrics_Empty(t *testing.T) {
	svc := NewStatsService(
		repository.NewMemoryEventRepository(),
		repository.NewMemoryHoldRepository(),
		repository.NewMemoryBookingRepository(),
		repository.NewMemoryCapacityRepository(),
	)

	metrics, err := svc.GetMetrics(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if metrics.TotalEvents != 0 || metrics.TotalBookings != 0 || metrics.ActiveHolds != 0 ||
		metrics.TotalSeatsBooked != 0 || metrics.ExpiredHoldsTotal != 0 {
		t.Errorf("Expected zeroed metrics, got %+v", metrics)
	}
}

// The expired counter is best-effort; an unreachable store reads as zero.
func TestStatsService_GetMetrics_DegradedExpiredCounter(t *testing.T) {
	broken := &failingCapacityRepo{
		MemoryCapacityRepository: repository.NewMemoryCapacityRepository(),
		getExpiredTotalErr:       errors.New("store unreachable"),
	}
	svc := NewStatsService(
		repository.NewMemoryEventRepository(),
		repository.NewMemoryHoldRepository(),
		repository.NewMemoryBookingRepository(),
		broken,
	)

	metrics, err := svc.GetMetrics(context.Background())
	if err != nil {
		t.Fatalf("Expected degraded read to succeed, got %v", err)
	}
	if metrics.ExpiredHoldsTotal != 0 {
		t.Errorf("Expected 0 expired, got %d", metrics.ExpiredHoldsTotal)
	}
}
