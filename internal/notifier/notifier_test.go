package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/logger"
	"github.com/N4thh/homi-nah/pkg/retry"
)

// recordingDLQ captures dead-lettered messages for assertions
type recordingDLQ struct {
	messages []*retry.DLQMessage
	err      error
}

func (d *recordingDLQ) PublishToDLQ(ctx context.Context, msg *retry.DLQMessage) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, msg)
	return nil
}

func (d *recordingDLQ) GetDLQTopic(originalTopic string) string {
	return originalTopic + ".dlq"
}

func TestNewKafkaNotifier_NilConfig(t *testing.T) {
	_, err := NewKafkaNotifier(context.Background(), nil)
	if err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestNewKafkaNotifier_NoBrokers(t *testing.T) {
	_, err := NewKafkaNotifier(context.Background(), &KafkaNotifierConfig{})
	if err == nil {
		t.Error("Expected error for empty broker list")
	}
}

func TestKafkaNotifier_DeadLetterOnPublishFailure(t *testing.T) {
	dlq := &recordingDLQ{}
	n := &KafkaNotifier{
		dlq:         dlq,
		topic:       "payment-events",
		serviceName: "homi-payment",
		log:         logger.Get(),
	}

	payment, err := domain.NewPayment("booking-1", "owner-1", "renter-1", 500000, "Thanh toan booking", 5*time.Minute)
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}
	event := domain.NewPaymentEvent(domain.PaymentEventSuccess, payment, "evt-1")
	headers := map[string]string{"event_id": "evt-1"}

	n.deadLetter(context.Background(), event, headers, time.Now(), errors.New("broker unreachable"))

	if len(dlq.messages) != 1 {
		t.Fatalf("expected 1 dead-lettered message, got %d", len(dlq.messages))
	}
	msg := dlq.messages[0]
	if msg.ID != "evt-1" {
		t.Errorf("expected message id evt-1, got %s", msg.ID)
	}
	if msg.OriginalTopic != "payment-events" {
		t.Errorf("expected original topic payment-events, got %s", msg.OriginalTopic)
	}
	if msg.OriginalKey != payment.ID {
		t.Errorf("expected key %s, got %s", payment.ID, msg.OriginalKey)
	}
	if msg.Error != "broker unreachable" {
		t.Errorf("expected publish error in message, got %q", msg.Error)
	}

	var decoded domain.PaymentEvent
	if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
		t.Fatalf("payload is not a valid event: %v", err)
	}
	if decoded.OrderCode != payment.OrderCode {
		t.Errorf("expected order code %d in payload, got %d", payment.OrderCode, decoded.OrderCode)
	}
	if decoded.EventType != domain.PaymentEventSuccess {
		t.Errorf("expected event type %s, got %s", domain.PaymentEventSuccess, decoded.EventType)
	}
}

func TestKafkaNotifier_DeadLetterFailureOnlyLogs(t *testing.T) {
	dlq := &recordingDLQ{err: errors.New("dlq down")}
	n := &KafkaNotifier{
		dlq:   dlq,
		topic: "payment-events",
		log:   logger.Get(),
	}

	payment, err := domain.NewPayment("booking-1", "owner-1", "renter-1", 500000, "Thanh toan booking", 5*time.Minute)
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}
	event := domain.NewPaymentEvent(domain.PaymentEventFailed, payment, "evt-2")

	n.deadLetter(context.Background(), event, nil, time.Now(), errors.New("broker unreachable"))

	if len(dlq.messages) != 0 {
		t.Errorf("expected no recorded messages when DLQ publish fails, got %d", len(dlq.messages))
	}
}

func TestNoOpNotifier(t *testing.T) {
	n := NewNoOpNotifier()
	ctx := context.Background()

	payment, err := domain.NewPayment("booking-1", "owner-1", "renter-1", 500000, "Booking #booking-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("NewPayment() error = %v", err)
	}

	if err := n.PaymentCreated(ctx, payment); err != nil {
		t.Errorf("PaymentCreated() error = %v", err)
	}
	if err := n.PaymentSucceeded(ctx, payment); err != nil {
		t.Errorf("PaymentSucceeded() error = %v", err)
	}
	if err := n.PaymentFailed(ctx, payment); err != nil {
		t.Errorf("PaymentFailed() error = %v", err)
	}
	if err := n.PaymentCancelled(ctx, payment); err != nil {
		t.Errorf("PaymentCancelled() error = %v", err)
	}
	if err := n.PaymentExpired(ctx, payment); err != nil {
		t.Errorf("PaymentExpired() error = %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
