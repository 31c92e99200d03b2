package repository

import (
	"context"

	"github.com/N4thh/homi-nah/internal/domain"
)

// BookingRepository reads and settles bookings owned by the booking module.
// The payment core only flips payment_status and the paid/confirmed fields.
type BookingRepository interface {
	// GetByID retrieves a booking by its ID
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// UpdatePaymentOutcome persists the booking fields a payment settlement
	// changes (status, payment_status, payment_date)
	UpdatePaymentOutcome(ctx context.Context, booking *domain.Booking) error
}
