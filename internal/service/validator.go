package service

import (
	"context"
	"errors"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/repository"
)

// PaymentValidator runs the pre-flight checks before a payment is created
type PaymentValidator struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
}

// NewPaymentValidator creates a payment validator
func NewPaymentValidator(bookings repository.BookingRepository, payments repository.PaymentRepository) *PaymentValidator {
	return &PaymentValidator{
		bookings: bookings,
		payments: payments,
	}
}

// ValidateForCreation checks that the booking can take a new payment from
// the renter. It returns the booking and, when one is already open, the
// booking's active payment so callers can reuse it instead of creating a
// duplicate.
func (v *PaymentValidator) ValidateForCreation(ctx context.Context, bookingID, renterID string) (*domain.Booking, *domain.Payment, error) {
	booking, err := v.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	if !booking.BelongsToRenter(renterID) {
		return nil, nil, domain.ErrNotBookingRenter
	}
	if booking.IsCancelled() {
		return nil, nil, domain.ErrBookingCancelled
	}
	if booking.IsPaid() {
		return nil, nil, domain.ErrBookingAlreadyPaid
	}
	if booking.TotalPrice <= 0 {
		return nil, nil, domain.ErrInvalidBookingPrice
	}
	if err := domain.ValidateAmount(booking.TotalPrice); err != nil {
		return nil, nil, err
	}

	active, err := v.payments.GetActiveByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return booking, nil, nil
		}
		return nil, nil, err
	}
	return booking, active, nil
}

// ValidateAmount checks a client-supplied amount against the booking total.
// Zero means the client left the amount to the server. A mismatch is a hard
// failure, never silently corrected.
func (v *PaymentValidator) ValidateAmount(booking *domain.Booking, requested int64) error {
	if requested == 0 {
		return nil
	}
	if requested != booking.TotalPrice {
		return domain.ErrAmountMismatch
	}
	return nil
}
