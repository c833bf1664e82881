package retry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DLQMessage is the envelope written to a dead letter topic. It carries
// the original payload untouched so an operator can replay it later.
type DLQMessage struct {
	ID             string            `json:"id"`
	OriginalTopic  string            `json:"original_topic"`
	OriginalKey    string            `json:"original_key"`
	Payload        json.RawMessage   `json:"payload"`
	Headers        map[string]string `json:"headers,omitempty"`
	Error          string            `json:"error"`
	Attempts       int               `json:"attempts"`
	FirstAttemptAt time.Time         `json:"first_attempt_at"`
	LastAttemptAt  time.Time         `json:"last_attempt_at"`
	MovedToDLQAt   time.Time         `json:"moved_to_dlq_at"`
	Source         string            `json:"source"`
}

// DLQPublisher moves messages that exhausted their retries onto a dead
// letter topic.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg *DLQMessage) error
	DLQTopic(originalTopic string) string
}

// DLQConfig names the dead letter topic relative to the original one.
type DLQConfig struct {
	// TopicSuffix is appended to the original topic (default ".dlq").
	TopicSuffix string
	// Source identifies the publishing service in the DLQ envelope.
	Source string
}

func DefaultDLQConfig() *DLQConfig {
	return &DLQConfig{
		TopicSuffix: ".dlq",
		Source:      "unknown",
	}
}

// JSONProducer is the slice of a Kafka producer the DLQ publisher needs.
type JSONProducer interface {
	ProduceJSON(ctx context.Context, topic string, key string, data interface{}, headers map[string]string) error
}

// KafkaDLQPublisher writes DLQ envelopes to "<topic><suffix>" on Kafka.
type KafkaDLQPublisher struct {
	producer JSONProducer
	config   *DLQConfig
}

func NewKafkaDLQPublisher(producer JSONProducer, config *DLQConfig) *KafkaDLQPublisher {
	if config == nil {
		config = DefaultDLQConfig()
	}
	if config.TopicSuffix == "" {
		config.TopicSuffix = ".dlq"
	}
	return &KafkaDLQPublisher{
		producer: producer,
		config:   config,
	}
}

func (p *KafkaDLQPublisher) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	if msg == nil {
		return fmt.Errorf("DLQ message cannot be nil")
	}

	msg.MovedToDLQAt = time.Now()
	msg.Source = p.config.Source

	headers := map[string]string{
		"content_type":    "application/json",
		"original_topic":  msg.OriginalTopic,
		"error":           msg.Error,
		"attempts":        fmt.Sprintf("%d", msg.Attempts),
		"moved_to_dlq_at": msg.MovedToDLQAt.Format(time.RFC3339),
		"source":          msg.Source,
	}
	// Original headers ride along under a prefix so they cannot clobber
	// the DLQ bookkeeping headers.
	for k, v := range msg.Headers {
		if _, exists := headers[k]; !exists {
			headers["original_"+k] = v
		}
	}

	return p.producer.ProduceJSON(ctx, p.DLQTopic(msg.OriginalTopic), msg.OriginalKey, msg, headers)
}

func (p *KafkaDLQPublisher) DLQTopic(originalTopic string) string {
	return originalTopic + p.config.TopicSuffix
}

// MessageContext describes the message being processed, so the handler
// can build a faithful DLQ envelope if every attempt fails.
type MessageContext struct {
	ID             string
	Topic          string
	Key            string
	Payload        json.RawMessage
	Headers        map[string]string
	FirstAttemptAt time.Time
}

// DLQHandlerConfig configures a DLQHandler.
type DLQHandlerConfig struct {
	RetryConfig *Config
	Source      string
	// OnDLQ is invoked just before an envelope is published, typically
	// for logging or metrics.
	OnDLQ func(msg *DLQMessage)
}

// DLQHandler retries an operation and, once retries are exhausted, parks
// the message on the dead letter topic instead of dropping it.
type DLQHandler struct {
	retrier   *Retrier
	publisher DLQPublisher
	config    *DLQHandlerConfig
}

func NewDLQHandler(publisher DLQPublisher, config *DLQHandlerConfig) *DLQHandler {
	if config == nil {
		config = &DLQHandlerConfig{}
	}
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultConfig()
	}
	if config.Source == "" {
		config.Source = "unknown"
	}
	return &DLQHandler{
		retrier:   New(config.RetryConfig),
		publisher: publisher,
		config:    config,
	}
}

// ProcessWithDLQ runs op under the retry schedule. On success it returns
// nil. On exhaustion it publishes a DLQ envelope and returns the retry
// error; a DLQ publish failure is reported instead, since at that point
// the message is genuinely lost.
func (h *DLQHandler) ProcessWithDLQ(ctx context.Context, msgCtx *MessageContext, op Operation) error {
	if msgCtx.FirstAttemptAt.IsZero() {
		msgCtx.FirstAttemptAt = time.Now()
	}

	result := h.retrier.Do(ctx, op)
	if result.Err == nil {
		return nil
	}

	errMsg := result.Err.Error()
	if result.LastError != nil {
		errMsg = result.LastError.Error()
	}

	dlqMsg := &DLQMessage{
		ID:             msgCtx.ID,
		OriginalTopic:  msgCtx.Topic,
		OriginalKey:    msgCtx.Key,
		Payload:        msgCtx.Payload,
		Headers:        msgCtx.Headers,
		Error:          errMsg,
		Attempts:       result.Attempts,
		FirstAttemptAt: msgCtx.FirstAttemptAt,
		LastAttemptAt:  time.Now(),
		Source:         h.config.Source,
	}

	if h.config.OnDLQ != nil {
		h.config.OnDLQ(dlqMsg)
	}

	if publishErr := h.publisher.PublishToDLQ(ctx, dlqMsg); publishErr != nil {
		return fmt.Errorf("failed to publish to DLQ: %w (original error: %v)", publishErr, result.LastError)
	}
	return result.Err
}

// NoOpDLQPublisher discards everything. Used when no broker is wired.
type NoOpDLQPublisher struct{}

func NewNoOpDLQPublisher() *NoOpDLQPublisher { return &NoOpDLQPublisher{} }

func (p *NoOpDLQPublisher) PublishToDLQ(ctx context.Context, msg *DLQMessage) error { return nil }

func (p *NoOpDLQPublisher) DLQTopic(originalTopic string) string { return originalTopic + ".dlq" }
