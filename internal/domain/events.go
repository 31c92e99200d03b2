package domain

import "time"

// PaymentEventType represents the type of payment event
type PaymentEventType string

const (
	PaymentEventCreated   PaymentEventType = "payment.created"
	PaymentEventSuccess   PaymentEventType = "payment.success"
	PaymentEventFailed    PaymentEventType = "payment.failed"
	PaymentEventCancelled PaymentEventType = "payment.cancelled"
	PaymentEventExpired   PaymentEventType = "payment.expired"
)

// PaymentEvent is the message published for payment lifecycle changes.
// Notification workers consume it to tell renters and owners.
type PaymentEvent struct {
	EventID     string           `json:"event_id"`
	EventType   PaymentEventType `json:"event_type"`
	PaymentID   string           `json:"payment_id"`
	PaymentCode string           `json:"payment_code"`
	OrderCode   int64            `json:"order_code"`
	BookingID   string           `json:"booking_id"`
	OwnerID     string           `json:"owner_id"`
	RenterID    string           `json:"renter_id"`
	Amount      int64            `json:"amount"`
	Currency    string           `json:"currency"`
	Status      PaymentStatus    `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewPaymentEvent creates an event from the payment's current state
func NewPaymentEvent(eventType PaymentEventType, payment *Payment, eventID string) *PaymentEvent {
	reason := payment.FailureReason
	if reason == "" {
		reason = payment.CancelReason
	}
	return &PaymentEvent{
		EventID:     eventID,
		EventType:   eventType,
		PaymentID:   payment.ID,
		PaymentCode: payment.PaymentCode,
		OrderCode:   payment.OrderCode,
		BookingID:   payment.BookingID,
		OwnerID:     payment.OwnerID,
		RenterID:    payment.RenterID,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Status:      payment.Status,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
	}
}

// Key returns the Kafka partition key for the event
func (e *PaymentEvent) Key() string {
	return e.PaymentID
}

// EventTypeForStatus maps a final payment status to its event type
func EventTypeForStatus(status PaymentStatus) (PaymentEventType, bool) {
	switch status {
	case PaymentStatusSuccess:
		return PaymentEventSuccess, true
	case PaymentStatusFailed:
		return PaymentEventFailed, true
	case PaymentStatusCancelled:
		return PaymentEventCancelled, true
	case PaymentStatusExpired:
		return PaymentEventExpired, true
	}
	return "", false
}
