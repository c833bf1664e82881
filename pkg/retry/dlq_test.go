package retry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultDLQConfig(t *testing.T) {
	config := DefaultDLQConfig()

	if config.TopicSuffix != ".dlq" {
		t.Errorf("TopicSuffix = %s, want .dlq", config.TopicSuffix)
	}

	if config.Source != "unknown" {
		t.Errorf("Source = %s, want unknown", config.Source)
	}
}

// recordingProducer captures everything produced so tests can inspect
// the DLQ envelope.
type recordingProducer struct {
	produced []struct {
		Topic   string
		Key     string
		Data    interface{}
		Headers map[string]string
	}
	failWith error
}

func (p *recordingProducer) ProduceJSON(ctx context.Context, topic string, key string, data interface{}, headers map[string]string) error {
	if p.failWith != nil {
		return p.failWith
	}

	p.produced = append(p.produced, struct {
		Topic   string
		Key     string
		Data    interface{}
		Headers map[string]string
	}{
		Topic:   topic,
		Key:     key,
		Data:    data,
		Headers: headers,
	})

	return nil
}

func TestKafkaDLQPublisher_DLQTopic(t *testing.T) {
	tests := []struct {
		name          string
		originalTopic string
		suffix        string
		expected      string
	}{
		{
			name:          "default suffix",
			originalTopic: "box-office-events",
			suffix:        "",
			expected:      "box-office-events.dlq",
		},
		{
			name:          "custom suffix",
			originalTopic: "box-office-events",
			suffix:        "-dead-letter",
			expected:      "box-office-events-dead-letter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := NewKafkaDLQPublisher(&recordingProducer{}, &DLQConfig{TopicSuffix: tt.suffix})
			got := publisher.DLQTopic(tt.originalTopic)

			if got != tt.expected {
				t.Errorf("DLQTopic(%s) = %s, want %s", tt.originalTopic, got, tt.expected)
			}
		})
	}
}

func TestKafkaDLQPublisher_PublishToDLQ(t *testing.T) {
	producer := &recordingProducer{}
	publisher := NewKafkaDLQPublisher(producer, &DLQConfig{
		TopicSuffix: ".dlq",
		Source:      "box-office",
	})

	msg := &DLQMessage{
		ID:            "evt-123",
		OriginalTopic: "box-office-events",
		OriginalKey:   "event-1",
		Payload:       json.RawMessage(`{"hold_id": "hold-456"}`),
		Headers: map[string]string{
			"event_type": "seat.hold.created",
		},
		Error:          "kafka connection failed",
		Attempts:       3,
		FirstAttemptAt: time.Now().Add(-1 * time.Minute),
		LastAttemptAt:  time.Now(),
	}

	if err := publisher.PublishToDLQ(context.Background(), msg); err != nil {
		t.Fatalf("PublishToDLQ failed: %v", err)
	}

	if len(producer.produced) != 1 {
		t.Fatalf("Expected 1 produced message, got %d", len(producer.produced))
	}

	got := producer.produced[0]

	if got.Topic != "box-office-events.dlq" {
		t.Errorf("Topic = %s, want box-office-events.dlq", got.Topic)
	}

	if got.Key != "event-1" {
		t.Errorf("Key = %s, want event-1", got.Key)
	}

	if got.Headers["original_topic"] != "box-office-events" {
		t.Errorf("Header original_topic = %s, want box-office-events", got.Headers["original_topic"])
	}

	if got.Headers["error"] != "kafka connection failed" {
		t.Errorf("Header error = %s, want 'kafka connection failed'", got.Headers["error"])
	}

	if got.Headers["attempts"] != "3" {
		t.Errorf("Header attempts = %s, want 3", got.Headers["attempts"])
	}

	if got.Headers["source"] != "box-office" {
		t.Errorf("Header source = %s, want box-office", got.Headers["source"])
	}

	// Original headers ride along prefixed
	if got.Headers["original_event_type"] != "seat.hold.created" {
		t.Errorf("Header original_event_type = %s, want seat.hold.created", got.Headers["original_event_type"])
	}

	envelope, ok := got.Data.(*DLQMessage)
	if !ok {
		t.Fatal("Produced data is not a DLQMessage")
	}

	if envelope.MovedToDLQAt.IsZero() {
		t.Error("MovedToDLQAt should be set")
	}

	if envelope.Source != "box-office" {
		t.Errorf("Source = %s, want box-office", envelope.Source)
	}
}

func TestKafkaDLQPublisher_PublishToDLQ_NilMessage(t *testing.T) {
	publisher := NewKafkaDLQPublisher(&recordingProducer{}, nil)

	if err := publisher.PublishToDLQ(context.Background(), nil); err == nil {
		t.Error("Expected error for nil message")
	}
}

func TestKafkaDLQPublisher_PublishToDLQ_ProduceFails(t *testing.T) {
	producer := &recordingProducer{failWith: errors.New("broker unreachable")}
	publisher := NewKafkaDLQPublisher(producer, nil)

	msg := &DLQMessage{
		ID:            "evt-123",
		OriginalTopic: "box-office-events",
		OriginalKey:   "event-1",
		Error:         "test error",
	}

	if err := publisher.PublishToDLQ(context.Background(), msg); err == nil {
		t.Error("Expected error when produce fails")
	}
}

func TestNewKafkaDLQPublisher_WithNilConfig(t *testing.T) {
	publisher := NewKafkaDLQPublisher(&recordingProducer{}, nil)

	if publisher.config == nil {
		t.Fatal("Config should not be nil")
	}

	if publisher.config.TopicSuffix != ".dlq" {
		t.Errorf("TopicSuffix = %s, want .dlq", publisher.config.TopicSuffix)
	}
}

func TestNoOpDLQPublisher(t *testing.T) {
	publisher := NewNoOpDLQPublisher()

	err := publisher.PublishToDLQ(context.Background(), &DLQMessage{
		ID:            "evt-123",
		OriginalTopic: "test-topic",
	})
	if err != nil {
		t.Errorf("NoOpDLQPublisher.PublishToDLQ returned %v, want nil", err)
	}

	if topic := publisher.DLQTopic("test-topic"); topic != "test-topic.dlq" {
		t.Errorf("DLQTopic = %s, want test-topic.dlq", topic)
	}
}

func TestDLQHandler_ProcessWithDLQ_Success(t *testing.T) {
	producer := &recordingProducer{}
	handler := NewDLQHandler(NewKafkaDLQPublisher(producer, nil), &DLQHandlerConfig{
		RetryConfig: &Config{
			MaxRetries:      3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0,
		},
		Source: "box-office",
	})

	msgCtx := &MessageContext{
		ID:      "evt-123",
		Topic:   "box-office-events",
		Key:     "event-1",
		Payload: json.RawMessage(`{"test": "data"}`),
	}

	attempts := 0
	err := handler.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Errorf("ProcessWithDLQ failed: %v", err)
	}

	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}

	if len(producer.produced) != 0 {
		t.Errorf("Expected 0 DLQ messages, got %d", len(producer.produced))
	}
}

func TestDLQHandler_ProcessWithDLQ_AllRetriesFail(t *testing.T) {
	producer := &recordingProducer{}
	dlqPublisher := NewKafkaDLQPublisher(producer, &DLQConfig{
		TopicSuffix: ".dlq",
		Source:      "box-office",
	})

	var parked *DLQMessage
	handler := NewDLQHandler(dlqPublisher, &DLQHandlerConfig{
		RetryConfig: &Config{
			MaxRetries:      2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0,
		},
		Source: "box-office",
		OnDLQ: func(msg *DLQMessage) {
			parked = msg
		},
	})

	msgCtx := &MessageContext{
		ID:      "evt-123",
		Topic:   "box-office-events",
		Key:     "event-1",
		Payload: json.RawMessage(`{"test": "data"}`),
		Headers: map[string]string{
			"event_type": "seat.hold.created",
		},
	}

	attempts := 0
	err := handler.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
		attempts++
		return errors.New("persistent error")
	})
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Expected ErrMaxRetriesExceeded, got %v", err)
	}

	// Initial + 2 retries = 3 total
	if attempts != 3 {
		t.Errorf("Operation called %d times, want 3", attempts)
	}

	if len(producer.produced) != 1 {
		t.Fatalf("Expected 1 DLQ message, got %d", len(producer.produced))
	}

	if producer.produced[0].Topic != "box-office-events.dlq" {
		t.Errorf("DLQ topic = %s, want box-office-events.dlq", producer.produced[0].Topic)
	}

	if parked == nil {
		t.Fatal("OnDLQ callback was not invoked")
	}

	if parked.Attempts != 3 {
		t.Errorf("Parked attempts = %d, want 3", parked.Attempts)
	}

	if parked.Error != "persistent error" {
		t.Errorf("Parked error = %s, want 'persistent error'", parked.Error)
	}
}

func TestDLQHandler_ProcessWithDLQ_PermanentError(t *testing.T) {
	producer := &recordingProducer{}
	handler := NewDLQHandler(NewKafkaDLQPublisher(producer, nil), &DLQHandlerConfig{
		RetryConfig: &Config{
			MaxRetries:      5,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0,
		},
		Source: "box-office",
	})

	msgCtx := &MessageContext{
		ID:    "evt-123",
		Topic: "box-office-events",
		Key:   "event-1",
	}

	attempts := 0
	err := handler.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
		attempts++
		return Permanent(errors.New("permanent error"))
	})
	if err == nil {
		t.Error("Expected error for permanent failure")
	}

	// Permanent errors stop the retry loop on the first attempt
	if attempts != 1 {
		t.Errorf("Operation called %d times, want 1", attempts)
	}

	// The message is still parked for replay
	if len(producer.produced) != 1 {
		t.Errorf("Expected 1 DLQ message, got %d", len(producer.produced))
	}
}

func TestDLQHandler_ProcessWithDLQ_DLQPublishFails(t *testing.T) {
	producer := &recordingProducer{failWith: errors.New("broker unreachable")}
	handler := NewDLQHandler(NewKafkaDLQPublisher(producer, nil), &DLQHandlerConfig{
		RetryConfig: &Config{
			MaxRetries:      1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0,
		},
		Source: "box-office",
	})

	msgCtx := &MessageContext{
		ID:    "evt-123",
		Topic: "box-office-events",
		Key:   "event-1",
	}

	err := handler.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
		return errors.New("produce failed")
	})
	if err == nil {
		t.Fatal("Expected error when DLQ publish fails")
	}

	if !strings.Contains(err.Error(), "failed to publish to DLQ") {
		t.Errorf("err = %v, want DLQ publish failure", err)
	}
}

func TestDLQHandler_SetsFirstAttemptAt(t *testing.T) {
	producer := &recordingProducer{}
	handler := NewDLQHandler(NewKafkaDLQPublisher(producer, nil), &DLQHandlerConfig{
		RetryConfig: &Config{
			MaxRetries:      0,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0,
		},
		Source: "box-office",
	})

	msgCtx := &MessageContext{
		ID:    "evt-123",
		Topic: "box-office-events",
		Key:   "event-1",
	}

	_ = handler.ProcessWithDLQ(context.Background(), msgCtx, func(ctx context.Context) error {
		return errors.New("error")
	})

	if msgCtx.FirstAttemptAt.IsZero() {
		t.Error("FirstAttemptAt should be backfilled")
	}

	if len(producer.produced) != 1 {
		t.Fatalf("Expected 1 DLQ message, got %d", len(producer.produced))
	}

	envelope := producer.produced[0].Data.(*DLQMessage)
	if !envelope.FirstAttemptAt.Equal(msgCtx.FirstAttemptAt) {
		t.Errorf("FirstAttemptAt = %v, want %v", envelope.FirstAttemptAt, msgCtx.FirstAttemptAt)
	}
}

func TestNewDLQHandler_WithNilConfig(t *testing.T) {
	handler := NewDLQHandler(NewKafkaDLQPublisher(&recordingProducer{}, nil), nil)

	if handler.config == nil {
		t.Fatal("Config should not be nil")
	}

	if handler.config.Source != "unknown" {
		t.Errorf("Source = %s, want unknown", handler.config.Source)
	}

	if handler.config.RetryConfig == nil {
		t.Error("RetryConfig should not be nil")
	}
}
