package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/database"
)

// PostgresBookingRepository implements BookingRepository using PostgreSQL
type PostgresBookingRepository struct {
	db *database.PostgresDB
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository
func NewPostgresBookingRepository(db *database.PostgresDB) *PostgresBookingRepository {
	return &PostgresBookingRepository{db: db}
}

// GetByID retrieves a booking by its ID
func (r *PostgresBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, renter_id, owner_id, home_id, total_price, status,
		       payment_status, payment_date, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	booking := &domain.Booking{}
	var status, paymentStatus string

	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.RenterID,
		&booking.OwnerID,
		&booking.HomeID,
		&booking.TotalPrice,
		&status,
		&paymentStatus,
		&booking.PaymentDate,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	booking.Status = domain.BookingStatus(status)
	booking.PaymentStatus = domain.BookingPaymentStatus(paymentStatus)
	return booking, nil
}

// UpdatePaymentOutcome persists the booking fields a settlement changes
func (r *PostgresBookingRepository) UpdatePaymentOutcome(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings SET
			status = $2,
			payment_status = $3,
			payment_date = $4,
			updated_at = $5
		WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query,
		booking.ID,
		string(booking.Status),
		string(booking.PaymentStatus),
		booking.PaymentDate,
		booking.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}

	return nil
}

// Ensure PostgresBookingRepository implements BookingRepository
var _ BookingRepository = (*PostgresBookingRepository)(nil)
