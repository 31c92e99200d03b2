package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/database"
)

// PostgreSQL error code for unique violation
const pgUniqueViolationCode = "23505"

// paymentColumns defines the columns to select for payments
// Using COALESCE for nullable text columns to avoid scan errors
const paymentColumns = `id, payment_code, order_code, booking_id, owner_id, renter_id,
	amount, currency, description, status,
	COALESCE(checkout_url, '') as checkout_url,
	COALESCE(qr_payload, '') as qr_payload,
	COALESCE(gateway_txn_id, '') as gateway_txn_id,
	COALESCE(bank_bin, '') as bank_bin,
	COALESCE(bank_account_number, '') as bank_account_number,
	COALESCE(bank_account_name, '') as bank_account_name,
	COALESCE(cancel_reason, '') as cancel_reason,
	COALESCE(failure_reason, '') as failure_reason,
	expires_at, paid_at, cancelled_at, created_at, updated_at`

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// Create inserts a new payment record
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, payment_code, order_code, booking_id, owner_id, renter_id,
			amount, currency, description, status, checkout_url, qr_payload,
			gateway_txn_id, bank_bin, bank_account_number, bank_account_name,
			cancel_reason, failure_reason, expires_at, paid_at, cancelled_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20, $21,
			$22, $23
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.PaymentCode,
		payment.OrderCode,
		payment.BookingID,
		payment.OwnerID,
		payment.RenterID,
		payment.Amount,
		payment.Currency,
		payment.Description,
		string(payment.Status),
		nullString(payment.CheckoutURL),
		nullString(payment.QRCode),
		nullString(payment.GatewayTxnID),
		nullString(payment.BankBIN),
		nullString(payment.BankAccountNumber),
		nullString(payment.BankAccountName),
		nullString(payment.CancelReason),
		nullString(payment.FailureReason),
		payment.ExpiresAt,
		payment.PaidAt,
		payment.CancelledAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			switch {
			case strings.Contains(pgErr.ConstraintName, "order_code"):
				return domain.ErrDuplicateOrderCode
			case strings.Contains(pgErr.ConstraintName, "payment_code"):
				return domain.ErrDuplicatePaymentCode
			case strings.Contains(pgErr.ConstraintName, "active_booking"):
				return domain.ErrActivePaymentExists
			}
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)
	return scanPayment(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByOrderCode retrieves a payment by its gateway order code
func (r *PostgresPaymentRepository) GetByOrderCode(ctx context.Context, orderCode int64) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE order_code = $1`, paymentColumns)
	return scanPayment(r.db.Pool().QueryRow(ctx, query, orderCode))
}

// GetActiveByBookingID retrieves the created or pending payment for a booking
func (r *PostgresPaymentRepository) GetActiveByBookingID(ctx context.Context, bookingID string) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE booking_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1`, paymentColumns)

	row := r.db.Pool().QueryRow(ctx, query, bookingID,
		string(domain.PaymentStatusCreated), string(domain.PaymentStatusPending))
	return scanPayment(row)
}

// List retrieves payments matching the filter, newest first, with total count
func (r *PostgresPaymentRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Payment, int64, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.RenterID != "" {
		conditions = append(conditions, fmt.Sprintf("renter_id = $%d", argIndex))
		args = append(args, filter.RenterID)
		argIndex++
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, filter.OwnerID)
		argIndex++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(filter.Status))
		argIndex++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments WHERE %s", whereClause)
	var total int64
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, paymentColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// UpdateFromStatus persists the payment's mutable fields guarded by the
// status the caller loaded the row at
func (r *PostgresPaymentRepository) UpdateFromStatus(ctx context.Context, payment *domain.Payment, expected domain.PaymentStatus) error {
	query := `
		UPDATE payments SET
			status = $2,
			checkout_url = $3,
			qr_payload = $4,
			gateway_txn_id = $5,
			bank_bin = $6,
			bank_account_number = $7,
			bank_account_name = $8,
			cancel_reason = $9,
			failure_reason = $10,
			paid_at = $11,
			cancelled_at = $12,
			updated_at = $13
		WHERE id = $1 AND status = $14`

	result, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		string(payment.Status),
		nullString(payment.CheckoutURL),
		nullString(payment.QRCode),
		nullString(payment.GatewayTxnID),
		nullString(payment.BankBIN),
		nullString(payment.BankAccountNumber),
		nullString(payment.BankAccountName),
		nullString(payment.CancelReason),
		nullString(payment.FailureReason),
		payment.PaidAt,
		payment.CancelledAt,
		payment.UpdatedAt,
		string(expected),
	)

	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.db.Pool().QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)", payment.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check payment existence: %w", err)
		}
		if !exists {
			return domain.ErrPaymentNotFound
		}
		return domain.ErrStatusConflict
	}

	return nil
}

// ListExpiredPending retrieves pending payments whose expiry has passed
func (r *PostgresPaymentRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE status = $1 AND expires_at < $2
		ORDER BY expires_at ASC
		LIMIT $3`, paymentColumns)

	rows, err := r.db.Pool().Query(ctx, query, string(domain.PaymentStatusPending), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired payments: %w", err)
	}
	defer rows.Close()

	return scanPayments(rows)
}

// CountByOwnerAndStatus tallies an owner's payments grouped by status
func (r *PostgresPaymentRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string) (map[domain.PaymentStatus]int64, error) {
	query := `
		SELECT status, COUNT(*)
		FROM payments
		WHERE owner_id = $1
		GROUP BY status`

	rows, err := r.db.Pool().Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PaymentStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan payment count: %w", err)
		}
		counts[domain.PaymentStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment counts: %w", err)
	}

	return counts, nil
}

// scanPayment scans a single payment from a row
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	payment := &domain.Payment{}
	var status string

	err := row.Scan(
		&payment.ID,
		&payment.PaymentCode,
		&payment.OrderCode,
		&payment.BookingID,
		&payment.OwnerID,
		&payment.RenterID,
		&payment.Amount,
		&payment.Currency,
		&payment.Description,
		&status,
		&payment.CheckoutURL,
		&payment.QRCode,
		&payment.GatewayTxnID,
		&payment.BankBIN,
		&payment.BankAccountNumber,
		&payment.BankAccountName,
		&payment.CancelReason,
		&payment.FailureReason,
		&payment.ExpiresAt,
		&payment.PaidAt,
		&payment.CancelledAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	payment.Status = domain.PaymentStatus(status)
	return payment, nil
}

// scanPayments scans all payments from rows
func scanPayments(rows pgx.Rows) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}

// nullString converts an empty string to a nil pointer for nullable columns
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresPaymentRepository implements PaymentRepository
var _ PaymentRepository = (*PostgresPaymentRepository)(nil)
