package retry

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// DLQMessage is the envelope written to a dead letter topic. The
// original payload is carried untouched so a replay worker can resend
// it, alongside a record of why and when delivery gave up.
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

// DLQPublisher moves undeliverable messages to a dead letter topic.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg *DLQMessage) error
	GetDLQTopic(originalTopic string) string
}

// DLQConfig names the dead letter topics and the publishing service.
type DLQConfig struct {
	// TopicSuffix is appended to the original topic name.
	TopicSuffix string
	// Source identifies the service that gave up on the message.
	Source string
}

// DefaultDLQConfig uses the conventional ".dlq" topic naming.
func DefaultDLQConfig() *DLQConfig {
	return &DLQConfig{
		TopicSuffix: ".dlq",
		Source:      "unknown",
	}
}

// Producer is the slice of the Kafka producer that DLQ publishing needs.
type Producer interface {
	ProduceJSON(ctx context.Context, topic string, key string, data interface{}, headers map[string]string) error
}

// KafkaDLQPublisher writes dead letter envelopes to a topic named after
// the one they failed on.
type KafkaDLQPublisher struct {
	producer Producer
	cfg      *DLQConfig
}

// NewKafkaDLQPublisher creates a publisher over an existing producer.
// A nil or incomplete config falls back to DefaultDLQConfig values.
func NewKafkaDLQPublisher(producer Producer, cfg *DLQConfig) *KafkaDLQPublisher {
	if cfg == nil {
		cfg = DefaultDLQConfig()
	}
	if cfg.TopicSuffix == "" {
		cfg.TopicSuffix = ".dlq"
	}
	return &KafkaDLQPublisher{
		producer: producer,
		cfg:      cfg,
	}
}

// PublishToDLQ stamps the envelope and produces it to the dead letter
// topic, keyed like the original message so ordering survives replay.
// The failure details are mirrored into Kafka headers for inspection
// without decoding the payload.
func (p *KafkaDLQPublisher) PublishToDLQ(ctx context.Context, msg *DLQMessage) error {
	if msg == nil {
		return errors.New("dlq message is required")
	}

	msg.MovedToDLQAt = time.Now()
	msg.Source = p.cfg.Source

	headers := map[string]string{
		"content_type":    "application/json",
		"original_topic":  msg.OriginalTopic,
		"error":           msg.Error,
		"attempts":        strconv.Itoa(msg.Attempts),
		"moved_to_dlq_at": msg.MovedToDLQAt.Format(time.RFC3339),
		"source":          msg.Source,
	}
	for k, v := range msg.Headers {
		headers["original_"+k] = v
	}

	return p.producer.ProduceJSON(ctx, p.GetDLQTopic(msg.OriginalTopic), msg.OriginalKey, msg, headers)
}

// GetDLQTopic returns the dead letter topic for an original topic.
func (p *KafkaDLQPublisher) GetDLQTopic(originalTopic string) string {
	return originalTopic + p.cfg.TopicSuffix
}
