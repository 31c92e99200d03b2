package domain

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment (matches DB ENUM)
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusExpired   PaymentStatus = "expired"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusPending, PaymentStatusSuccess,
		PaymentStatusFailed, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Amount limits enforced by the gateway (integer VND).
const (
	MinAmount = 1_000
	MaxAmount = 100_000_000

	CurrencyVND = "VND"

	// MaxOrderCode is the largest order code the gateway accepts.
	MaxOrderCode = int64(9_007_199_254_740_991)

	MinDescriptionLen = 3
	MaxDescriptionLen = 100
)

// Reasons recorded on payments that did not complete.
const (
	// CancelReasonTimeout is set by the expiry sweeper; it moves the
	// payment to expired rather than cancelled.
	CancelReasonTimeout = "timeout"

	CancelReasonUser = "cancelled_by_user"

	FailureReasonLinkCreation = "gateway_link_creation_failed"
)

// Payment represents a payment entity (matches DB schema)
type Payment struct {
	ID                string        `json:"id"`
	PaymentCode       string        `json:"payment_code"`
	OrderCode         int64         `json:"order_code"`
	BookingID         string        `json:"booking_id"`
	OwnerID           string        `json:"owner_id"`
	RenterID          string        `json:"renter_id"`
	Amount            int64         `json:"amount"`
	Currency          string        `json:"currency"`
	Description       string        `json:"description"`
	Status            PaymentStatus `json:"status"`
	CheckoutURL       string        `json:"checkout_url,omitempty"`
	QRCode            string        `json:"qr_code,omitempty"`
	GatewayTxnID      string        `json:"gateway_txn_id,omitempty"`
	BankBIN           string        `json:"bank_bin,omitempty"`
	BankAccountNumber string        `json:"bank_account_number,omitempty"`
	BankAccountName   string        `json:"bank_account_name,omitempty"`
	CancelReason      string        `json:"cancel_reason,omitempty"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	ExpiresAt         time.Time     `json:"expires_at"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewPayment creates a new payment for a booking
func NewPayment(bookingID, ownerID, renterID string, amount int64, description string, expiresIn time.Duration) (*Payment, error) {
	if strings.TrimSpace(bookingID) == "" {
		return nil, ErrInvalidBookingID
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwnerID
	}
	if strings.TrimSpace(renterID) == "" {
		return nil, ErrInvalidRenterID
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if len(description) < MinDescriptionLen || len(description) > MaxDescriptionLen {
		return nil, ErrInvalidDescription
	}
	if expiresIn <= 0 {
		return nil, ErrInvalidExpiry
	}

	now := time.Now().UTC()
	return &Payment{
		ID:          uuid.New().String(),
		PaymentCode: NewPaymentCode(),
		OrderCode:   NewOrderCode(),
		BookingID:   bookingID,
		OwnerID:     ownerID,
		RenterID:    renterID,
		Amount:      amount,
		Currency:    CurrencyVND,
		Description: description,
		Status:      PaymentStatusCreated,
		ExpiresAt:   now.Add(expiresIn),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewPaymentCode generates a human-readable payment code (PAY-XXXXXXXX)
func NewPaymentCode() string {
	return "PAY-" + strings.ToUpper(uuid.New().String()[:8])
}

// NewOrderCode generates a numeric order code for the gateway. Codes are
// a millisecond timestamp with a random suffix, so collisions are rare;
// callers regenerate on a unique-index violation.
func NewOrderCode() int64 {
	return time.Now().UnixMilli()*1000 + rand.Int64N(1000)
}

// ValidateAmount checks an amount against the gateway's VND limits
func ValidateAmount(amount int64) error {
	if amount < MinAmount {
		return ErrAmountTooSmall
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}

// MarkPending marks the payment as awaiting gateway confirmation
func (p *Payment) MarkPending(checkoutURL, qrCode string) error {
	if p.IsFinal() {
		return ErrPaymentFinal
	}
	if p.Status != PaymentStatusCreated {
		return ErrInvalidPaymentStatus
	}
	if checkoutURL == "" {
		return ErrMissingCheckoutURL
	}
	p.Status = PaymentStatusPending
	p.CheckoutURL = checkoutURL
	p.QRCode = qrCode
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetGatewayInfo sets the link id and virtual account returned by the gateway
func (p *Payment) SetGatewayInfo(linkID, bin, accountNumber, accountName string) {
	p.GatewayTxnID = linkID
	p.BankBIN = bin
	p.BankAccountNumber = accountNumber
	p.BankAccountName = accountName
	p.UpdatedAt = time.Now().UTC()
}

// MarkSuccess marks the payment as paid
func (p *Payment) MarkSuccess(transactionID string) error {
	if p.IsFinal() {
		return ErrPaymentFinal
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusSuccess
	if transactionID != "" {
		p.GatewayTxnID = transactionID
	}
	p.PaidAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkFailed marks the payment as failed
func (p *Payment) MarkFailed(reason string) error {
	if p.IsFinal() {
		return ErrPaymentFinal
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCancelled marks the payment as cancelled
func (p *Payment) MarkCancelled(reason string) error {
	if p.IsFinal() {
		return ErrPaymentFinal
	}
	if reason == "" {
		reason = CancelReasonUser
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusCancelled
	p.CancelReason = reason
	p.CancelledAt = &now
	p.UpdatedAt = now
	return nil
}

// MarkExpired marks the payment as expired after its window passed
func (p *Payment) MarkExpired() error {
	if p.IsFinal() {
		return ErrPaymentFinal
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusExpired
	p.CancelReason = CancelReasonTimeout
	p.CancelledAt = &now
	p.UpdatedAt = now
	return nil
}

// IsFinal returns true if the payment is in a final state
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusSuccess ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusCancelled ||
		p.Status == PaymentStatusExpired
}

// IsActive returns true if the payment can still transition
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusCreated || p.Status == PaymentStatusPending
}

// IsSuccessful returns true if the payment was paid
func (p *Payment) IsSuccessful() bool {
	return p.Status == PaymentStatusSuccess
}

// IsExpired checks if the payment window has passed
func (p *Payment) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// IsExpiredAt checks if the payment window has passed at a specific time
func (p *Payment) IsExpiredAt(t time.Time) bool {
	return t.After(p.ExpiresAt)
}

// CanBeViewedBy checks if the user is the payer or the payee
func (p *Payment) CanBeViewedBy(userID string) bool {
	return p.RenterID == userID || p.OwnerID == userID
}
