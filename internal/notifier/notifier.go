package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/kafka"
	"github.com/N4thh/homi-nah/pkg/logger"
	"github.com/N4thh/homi-nah/pkg/retry"
)

// producerRetries is how many times the producer retries a publish before
// the event is dead-lettered
const producerRetries = 3

// Notifier publishes payment lifecycle events for the platform's
// notification workers. Implementations must be safe for concurrent use.
type Notifier interface {
	// PaymentCreated publishes a payment created event
	PaymentCreated(ctx context.Context, payment *domain.Payment) error

	// PaymentSucceeded publishes a payment success event
	PaymentSucceeded(ctx context.Context, payment *domain.Payment) error

	// PaymentFailed publishes a payment failed event
	PaymentFailed(ctx context.Context, payment *domain.Payment) error

	// PaymentCancelled publishes a payment cancelled event
	PaymentCancelled(ctx context.Context, payment *domain.Payment) error

	// PaymentExpired publishes a payment expired event
	PaymentExpired(ctx context.Context, payment *domain.Payment) error

	// Close flushes and closes the notifier
	Close() error
}

// KafkaNotifier implements Notifier on a Kafka topic. Events whose publish
// fails after the producer's retries are copied to the topic's dead letter
// queue so notification workers can replay them.
type KafkaNotifier struct {
	producer    *kafka.Producer
	dlq         retry.DLQPublisher
	topic       string
	serviceName string
	log         *logger.Logger
}

// KafkaNotifierConfig contains configuration for the Kafka notifier
type KafkaNotifierConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaNotifier creates a notifier backed by a Kafka producer
func NewKafkaNotifier(ctx context.Context, cfg *KafkaNotifierConfig) (*KafkaNotifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notifier config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "payment-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "payment-service"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "payment-service-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    producerRetries,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	dlqCfg := retry.DefaultDLQConfig()
	dlqCfg.Source = serviceName

	return &KafkaNotifier{
		producer:    producer,
		dlq:         retry.NewKafkaDLQPublisher(producer, dlqCfg),
		topic:       topic,
		serviceName: serviceName,
		log:         logger.Get(),
	}, nil
}

// PaymentCreated publishes a payment created event
func (n *KafkaNotifier) PaymentCreated(ctx context.Context, payment *domain.Payment) error {
	return n.publishEvent(ctx, domain.PaymentEventCreated, payment)
}

// PaymentSucceeded publishes a payment success event
func (n *KafkaNotifier) PaymentSucceeded(ctx context.Context, payment *domain.Payment) error {
	return n.publishEvent(ctx, domain.PaymentEventSuccess, payment)
}

// PaymentFailed publishes a payment failed event
func (n *KafkaNotifier) PaymentFailed(ctx context.Context, payment *domain.Payment) error {
	return n.publishEvent(ctx, domain.PaymentEventFailed, payment)
}

// PaymentCancelled publishes a payment cancelled event
func (n *KafkaNotifier) PaymentCancelled(ctx context.Context, payment *domain.Payment) error {
	return n.publishEvent(ctx, domain.PaymentEventCancelled, payment)
}

// PaymentExpired publishes a payment expired event
func (n *KafkaNotifier) PaymentExpired(ctx context.Context, payment *domain.Payment) error {
	return n.publishEvent(ctx, domain.PaymentEventExpired, payment)
}

// Close flushes pending events and closes the producer
func (n *KafkaNotifier) Close() error {
	if n.producer != nil {
		n.producer.Close()
	}
	return nil
}

func (n *KafkaNotifier) publishEvent(ctx context.Context, eventType domain.PaymentEventType, payment *domain.Payment) error {
	eventID := uuid.New().String()
	event := domain.NewPaymentEvent(eventType, payment, eventID)

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     eventID,
		"source":       n.serviceName,
		"content_type": "application/json",
	}

	started := time.Now()
	if err := n.producer.ProduceJSON(ctx, n.topic, event.Key(), event, headers); err != nil {
		n.deadLetter(ctx, event, headers, started, err)
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// deadLetter copies a failed event to the DLQ topic. The original publish
// error is still returned to the caller; a DLQ failure is only logged.
func (n *KafkaNotifier) deadLetter(ctx context.Context, event *domain.PaymentEvent, headers map[string]string, started time.Time, cause error) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.log.Error(fmt.Sprintf("Failed to marshal event for DLQ: event_id=%s, error=%v", event.EventID, err))
		return
	}

	msg := &retry.DLQMessage{
		ID:             event.EventID,
		OriginalTopic:  n.topic,
		OriginalKey:    event.Key(),
		Payload:        payload,
		Headers:        headers,
		Error:          cause.Error(),
		Attempts:       producerRetries,
		FirstAttemptAt: started,
		LastAttemptAt:  time.Now(),
	}
	if dlqErr := n.dlq.PublishToDLQ(ctx, msg); dlqErr != nil {
		n.log.Error(fmt.Sprintf("Failed to dead-letter payment event: event_id=%s, order_code=%d, error=%v",
			event.EventID, event.OrderCode, dlqErr))
		return
	}
	n.log.Warn(fmt.Sprintf("Payment event dead-lettered: event_id=%s, type=%s, order_code=%d",
		event.EventID, event.EventType, event.OrderCode))
}

// NoOpNotifier is a no-op implementation of Notifier for testing and for
// deployments without Kafka
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new no-op notifier
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// PaymentCreated is a no-op
func (n *NoOpNotifier) PaymentCreated(ctx context.Context, payment *domain.Payment) error {
	return nil
}

// PaymentSucceeded is a no-op
func (n *NoOpNotifier) PaymentSucceeded(ctx context.Context, payment *domain.Payment) error {
	return nil
}

// PaymentFailed is a no-op
func (n *NoOpNotifier) PaymentFailed(ctx context.Context, payment *domain.Payment) error {
	return nil
}

// PaymentCancelled is a no-op
func (n *NoOpNotifier) PaymentCancelled(ctx context.Context, payment *domain.Payment) error {
	return nil
}

// PaymentExpired is a no-op
func (n *NoOpNotifier) PaymentExpired(ctx context.Context, payment *domain.Payment) error {
	return nil
}

// Close is a no-op
func (n *NoOpNotifier) Close() error {
	return nil
}

var (
	_ Notifier = (*KafkaNotifier)(nil)
	_ Notifier = (*NoOpNotifier)(nil)
)
