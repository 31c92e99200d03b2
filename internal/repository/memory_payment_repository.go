package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
)

// MemoryPaymentRepository implements PaymentRepository using in-memory storage
// This is useful for testing and development
type MemoryPaymentRepository struct {
	payments    map[string]*domain.Payment // paymentID -> payment
	byOrderCode map[int64]string           // orderCode -> paymentID
	byCode      map[string]string          // paymentCode -> paymentID
	mu          sync.RWMutex
}

// NewMemoryPaymentRepository creates a new in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments:    make(map[string]*domain.Payment),
		byOrderCode: make(map[int64]string),
		byCode:      make(map[string]string),
	}
}

// Create inserts a new payment record. At most one active payment may
// exist per booking; a second insert loses with ErrActivePaymentExists.
func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.payments {
		if existing.BookingID == payment.BookingID && existing.IsActive() {
			return domain.ErrActivePaymentExists
		}
	}
	if _, exists := r.byOrderCode[payment.OrderCode]; exists {
		return domain.ErrDuplicateOrderCode
	}
	if _, exists := r.byCode[payment.PaymentCode]; exists {
		return domain.ErrDuplicatePaymentCode
	}

	// Clone payment to avoid external modifications
	p := *payment
	r.payments[payment.ID] = &p
	r.byOrderCode[payment.OrderCode] = payment.ID
	r.byCode[payment.PaymentCode] = payment.ID

	return nil
}

// GetByID retrieves a payment by its ID
func (r *MemoryPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	payment, exists := r.payments[id]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}

	p := *payment
	return &p, nil
}

// GetByOrderCode retrieves a payment by its gateway order code
func (r *MemoryPaymentRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paymentID, exists := r.byOrderCode[orderCode]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}

	payment, exists := r.payments[paymentID]
	if !exists {
		return nil, domain.ErrPaymentNotFound
	}

	p := *payment
	return &p, nil
}

// GetActiveByBookingID retrieves the created or pending payment for a booking
func (r *MemoryPaymentRepository) GetActiveByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.Payment
	for _, payment := range r.payments {
		if payment.BookingID != bookingID || !payment.IsActive() {
			continue
		}
		if latest == nil || payment.CreatedAt.After(latest.CreatedAt) {
			latest = payment
		}
	}

	if latest == nil {
		return nil, domain.ErrPaymentNotFound
	}

	p := *latest
	return &p, nil
}

// List retrieves payments matching the filter, newest first, with total count
func (r *MemoryPaymentRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Payment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Payment
	for _, payment := range r.payments {
		if filter.RenterID != "" && payment.RenterID != filter.RenterID {
			continue
		}
		if filter.OwnerID != "" && payment.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && payment.Status != filter.Status {
			continue
		}
		matched = append(matched, payment)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	start := filter.Offset
	if start >= len(matched) {
		return []*domain.Payment{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]*domain.Payment, 0, end-start)
	for _, payment := range matched[start:end] {
		p := *payment
		result = append(result, &p)
	}

	return result, total, nil
}

// UpdateFromStatus persists the payment guarded by the loaded status.
// Only the columns the SQL implementation updates are written; identity,
// codes, amount and expiry keep their stored values.
func (r *MemoryPaymentRepository) UpdateFromStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.payments[payment.ID]
	if !exists {
		return domain.ErrPaymentNotFound
	}
	if existing.Status != expected {
		return domain.ErrStatusConflict
	}

	p := *existing
	p.Status = payment.Status
	p.CheckoutURL = payment.CheckoutURL
	p.QRCode = payment.QRCode
	p.GatewayTxnID = payment.GatewayTxnID
	p.BankBIN = payment.BankBIN
	p.BankAccountNumber = payment.BankAccountNumber
	p.BankAccountName = payment.BankAccountName
	p.CancelReason = payment.CancelReason
	p.FailureReason = payment.FailureReason
	p.PaidAt = payment.PaidAt
	p.CancelledAt = payment.CancelledAt
	p.UpdatedAt = payment.UpdatedAt
	r.payments[payment.ID] = &p

	return nil
}

// ListExpiredPending retrieves pending payments whose expiry has passed
func (r *MemoryPaymentRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []*domain.Payment
	for _, payment := range r.payments {
		if payment.Status == domain.PaymentStatusPending && payment.ExpiresAt.Before(cutoff) {
			expired = append(expired, payment)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	result := make([]*domain.Payment, 0, len(expired))
	for _, payment := range expired {
		p := *payment
		result = append(result, &p)
	}

	return result, nil
}

// CountByOwnerAndStatus tallies an owner's payments grouped by status
func (r *MemoryPaymentRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string) (map[domain.PaymentStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.PaymentStatus]int64)
	for _, payment := range r.payments {
		if payment.OwnerID == ownerID {
			counts[payment.Status]++
		}
	}

	return counts, nil
}

// Clear clears all data (for testing)
func (r *MemoryPaymentRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments = make(map[string]*domain.Payment)
	r.byOrderCode = make(map[int64]string)
	r.byCode = make(map[string]string)
}

// Count returns the total number of payments (for testing)
func (r *MemoryPaymentRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.payments)
}

// Ensure MemoryPaymentRepository implements PaymentRepository
var _ PaymentRepository = (*MemoryPaymentRepository)(nil)
