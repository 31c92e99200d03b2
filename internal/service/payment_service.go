package service

import (
	"context"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
)

// PaymentService defines the interface for payment orchestration
type PaymentService interface {
	// CreatePayment starts checkout for a booking. When the booking already
	// has a live pending payment, that payment is returned instead of a new
	// one being created; a checkout still being set up by a concurrent
	// request surfaces ErrActivePaymentExists.
	CreatePayment(ctx context.Context, renterID string, req *dto.CreatePaymentRequest) (*domain.Payment, error)

	// GetPayment retrieves a payment visible to the user
	GetPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error)

	// GetPaymentByOrderCode retrieves a payment by its gateway order code
	GetPaymentByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error)

	// ListPayments retrieves the user's payments, newest first, along with
	// the total match count
	ListPayments(ctx context.Context, filter *dto.PaymentListFilter) ([]*domain.Payment, int64, error)

	// RefreshPayment polls the gateway for the payment's current status and
	// applies any change. Gateway failures leave the payment untouched.
	RefreshPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error)

	// CancelPayment cancels an active payment on behalf of its renter or
	// owner. Cancelling a finalized payment is a no-op returning the
	// current state.
	CancelPayment(ctx context.Context, userID, paymentID, reason string) (*domain.Payment, error)

	// ApplyGatewayEvent applies a provider-reported status change. Webhooks,
	// refresh polls, and the expiry sweep all funnel through here.
	ApplyGatewayEvent(ctx context.Context, event *GatewayEvent) (*domain.Payment, error)

	// SweepExpiredPayments finalizes pending payments whose window has
	// passed, checking the gateway one last time before expiring each.
	// Returns how many payments were expired.
	SweepExpiredPayments(ctx context.Context, limit int) (int, error)
}

// GatewayEvent is a provider-reported status change for a payment
type GatewayEvent struct {
	OrderCode     int64
	Status        string // raw provider status, classified by the gateway package
	TransactionID string
	Amount        int64 // 0 when the provider did not report one
}

// PaymentServiceConfig holds configuration for the payment service
type PaymentServiceConfig struct {
	// ExpiresIn is how long a checkout stays payable after creation
	ExpiresIn time.Duration

	// ReturnURL and CancelURL are the redirect targets used when the
	// client does not supply its own
	ReturnURL string
	CancelURL string

	// CodeRetries bounds order-code regeneration on unique collisions
	CodeRetries int
}

// DefaultPaymentServiceConfig returns default payment service configuration
func DefaultPaymentServiceConfig() *PaymentServiceConfig {
	return &PaymentServiceConfig{
		ExpiresIn:   5 * time.Minute,
		ReturnURL:   "https://homi.vn/payment/success",
		CancelURL:   "https://homi.vn/payment/cancel",
		CodeRetries: 3,
	}
}
