package metrics

import (
	"context"
	"sync"

	"github.com/ayush-ak-725/ticket-booking-service/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Hold counters
	HoldsCreated       *telemetry.Counter
	HoldsExpired       *telemetry.Counter
	CapacityRejections *telemetry.Counter

	// Booking counters
	BookingsConfirmed *telemetry.Counter

	// Error tracking counters
	ErrorsTotal       *telemetry.Counter
	SlowRequestsTotal *telemetry.Counter

	// Histograms
	HoldConfirmationLatency *telemetry.Histogram
	RequestDuration         *telemetry.Histogram

	// Gauges
	ActiveHolds *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all box office metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	// Hold counters
	HoldsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_creations_total",
		Description: "Total number of seat holds created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	HoldsExpired, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_expirations_total",
		Description: "Total number of holds expired",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	CapacityRejections, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "hold_capacity_rejections_total",
		Description: "Total number of holds rejected for insufficient seats",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Booking counters
	BookingsConfirmed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "booking_confirmations_total",
		Description: "Total number of bookings confirmed",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Histogram over the hold TTL window
	HoldConfirmationLatency, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "hold_confirmation_latency_seconds",
		Description: "Duration from hold creation to booking confirmation",
		Unit:        "s",
	}, []float64{1, 5, 10, 30, 60, 120, 300, 600, 900}) // 1s to 15min
	if err != nil {
		return err
	}

	// Request duration histogram for latency tracking (p50, p90, p99)
	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "box_office_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}) // 5ms to 10s
	if err != nil {
		return err
	}

	// Error tracking
	ErrorsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "box_office_errors_total",
		Description: "Total number of errors by type",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	SlowRequestsTotal, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "box_office_slow_requests_total",
		Description: "Total number of slow requests (>1s)",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	// Up-down counter for current state
	ActiveHolds, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "active_holds",
		Description: "Current number of active seat holds",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordHoldCreated records a hold creation metric
func RecordHoldCreated(ctx context.Context, eventID string, quantity int) {
	if HoldsCreated != nil {
		HoldsCreated.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.Int("quantity", quantity),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Inc(ctx)
	}
}

// RecordHoldsExpired records hold expiration metrics
func RecordHoldsExpired(ctx context.Context, eventID string, count int64) {
	if HoldsExpired != nil {
		HoldsExpired.Add(ctx, count,
			attribute.String("event_id", eventID),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Add(ctx, -count)
	}
}

// RecordBookingConfirmed records a booking confirmation metric
func RecordBookingConfirmed(ctx context.Context, eventID string, holdAgeSeconds float64) {
	if BookingsConfirmed != nil {
		BookingsConfirmed.Inc(ctx,
			attribute.String("event_id", eventID),
		)
	}
	if HoldConfirmationLatency != nil {
		HoldConfirmationLatency.Record(ctx, holdAgeSeconds,
			attribute.String("event_id", eventID),
		)
	}
	if ActiveHolds != nil {
		ActiveHolds.Dec(ctx)
	}
}

// RecordCapacityRejection records a reservation rejected for lack of seats
func RecordCapacityRejection(ctx context.Context, eventID string, requested int) {
	if CapacityRejections != nil {
		CapacityRejections.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.Int("requested", requested),
		)
	}
}

// RecordError records an error by type and operation
func RecordError(ctx context.Context, errorType, operation string) {
	if ErrorsTotal != nil {
		ErrorsTotal.Inc(ctx,
			attribute.String("error_type", errorType),
			attribute.String("operation", operation),
		)
	}
}

// RecordRequestDuration records HTTP request duration and tracks slow requests
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
	// Track slow requests (>1s)
	if durationSeconds > 1.0 && SlowRequestsTotal != nil {
		SlowRequestsTotal.Inc(ctx,
			attribute.String("operation", operation),
		)
	}
}
