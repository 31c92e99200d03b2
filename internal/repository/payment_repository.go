package repository

import (
	"context"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
)

// ListFilter narrows a payment listing. Empty fields match everything.
type ListFilter struct {
	RenterID string
	OwnerID  string
	Status   domain.PaymentStatus
	Limit    int
	Offset   int
}

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	// Create inserts a new payment record. Duplicate order or payment codes
	// surface as domain.ErrDuplicateOrderCode / ErrDuplicatePaymentCode.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by its ID
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByOrderCode retrieves a payment by its gateway order code
	GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error)

	// GetActiveByBookingID retrieves the created or pending payment for a
	// booking, if one exists
	GetActiveByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error)

	// List retrieves payments matching the filter, newest first, along with
	// the total match count for pagination
	List(ctx context.Context, filter ListFilter) ([]*domain.Payment, int64, error)

	// UpdateFromStatus persists the payment's mutable fields guarded by the
	// status the caller loaded. Returns domain.ErrStatusConflict when another
	// writer moved the row first.
	UpdateFromStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error

	// ListExpiredPending retrieves pending payments whose expires_at has
	// passed, oldest first
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error)

	// CountByOwnerAndStatus tallies an owner's payments grouped by status
	CountByOwnerAndStatus(ctx context.Context, ownerID string) (map[domain.PaymentStatus]int64, error)
}
