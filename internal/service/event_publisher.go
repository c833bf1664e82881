package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ayush-ak-725/ticket-booking-service/internal/domain"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/kafka"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/logger"
	"github.com/ayush-ak-725/ticket-booking-service/pkg/retry"
)

// EventPublisher defines the interface for publishing seat lifecycle events
type EventPublisher interface {
	// PublishHoldCreated publishes a hold created event
	PublishHoldCreated(ctx context.Context, hold *domain.Hold) error

	// PublishHoldExpired publishes a hold expired event
	PublishHoldExpired(ctx context.Context, hold *domain.Hold) error

	// PublishBookingConfirmed publishes a booking confirmed event
	PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	dlq         *retry.DLQHandler
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = domain.SeatEventTopic
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "box-office"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "box-office-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	// Failed events are retried briefly and then parked on "<topic>.dlq"
	// for replay. The retry window is kept short because publishing sits
	// on the request path and callers only warn-log the error.
	dlq := retry.NewDLQHandler(
		retry.NewKafkaDLQPublisher(producer, &retry.DLQConfig{Source: serviceName}),
		&retry.DLQHandlerConfig{
			RetryConfig: &retry.Config{
				MaxRetries:      2,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     500 * time.Millisecond,
				Multiplier:      2.0,
				JitterFactor:    0.1,
			},
			Source: serviceName,
			OnDLQ: func(msg *retry.DLQMessage) {
				logger.Get().Warn("Seat event moved to DLQ",
					zap.String("topic", msg.OriginalTopic),
					zap.String("key", msg.OriginalKey),
					zap.Int("attempts", msg.Attempts),
					zap.String("error", msg.Error))
			},
		},
	)

	return &KafkaEventPublisher{
		producer:    producer,
		dlq:         dlq,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishHoldCreated publishes a hold created event
func (p *KafkaEventPublisher) PublishHoldCreated(ctx context.Context, hold *domain.Hold) error {
	eventID := uuid.New().String()
	return p.publishEvent(ctx, domain.SeatEventHoldCreated, domain.NewHoldEvent(domain.SeatEventHoldCreated, hold, eventID))
}

// PublishHoldExpired publishes a hold expired event
func (p *KafkaEventPublisher) PublishHoldExpired(ctx context.Context, hold *domain.Hold) error {
	eventID := uuid.New().String()
	return p.publishEvent(ctx, domain.SeatEventHoldExpired, domain.NewHoldEvent(domain.SeatEventHoldExpired, hold, eventID))
}

// PublishBookingConfirmed publishes a booking confirmed event
func (p *KafkaEventPublisher) PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	eventID := uuid.New().String()
	return p.publishEvent(ctx, domain.SeatEventBookingConfirmed, domain.NewBookingEvent(domain.SeatEventBookingConfirmed, booking, eventID))
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// publishEvent publishes a seat event to Kafka
func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType domain.SeatEventType, event *domain.SeatEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     event.EventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	msg := &kafka.Message{
		Topic:     p.topic,
		Key:       []byte(event.Key()),
		Value:     value,
		Headers:   headers,
		Timestamp: time.Now(),
	}

	err = p.dlq.ProcessWithDLQ(ctx, &retry.MessageContext{
		ID:      event.EventID,
		Topic:   p.topic,
		Key:     event.Key(),
		Payload: value,
		Headers: headers,
	}, func(ctx context.Context) error {
		return p.producer.Produce(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishHoldCreated is a no-op
func (p *NoOpEventPublisher) PublishHoldCreated(ctx context.Context, hold *domain.Hold) error {
	return nil
}

// PublishHoldExpired is a no-op
func (p *NoOpEventPublisher) PublishHoldExpired(ctx context.Context, hold *domain.Hold) error {
	return nil
}

// PublishBookingConfirmed is a no-op
func (p *NoOpEventPublisher) PublishBookingConfirmed(ctx context.Context, booking *domain.Booking) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
