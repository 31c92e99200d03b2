package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/pkg/database"
)

// PostgresPaymentConfigRepository implements PaymentConfigRepository using PostgreSQL
type PostgresPaymentConfigRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentConfigRepository creates a new PostgreSQL config repository
func NewPostgresPaymentConfigRepository(db *database.PostgresDB) *PostgresPaymentConfigRepository {
	return &PostgresPaymentConfigRepository{db: db}
}

// Create inserts an owner's credential config. The partial unique index on
// (owner_id) WHERE is_active rejects a second active row.
func (r *PostgresPaymentConfigRepository) Create(ctx context.Context, config *domain.PaymentConfig) error {
	query := `
		INSERT INTO payment_configs (
			id, owner_id, client_id, api_key, checksum_key, is_active,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.Pool().Exec(ctx, query,
		config.ID,
		config.OwnerID,
		config.ClientID,
		config.APIKey,
		config.ChecksumKey,
		config.IsActive,
		config.CreatedAt,
		config.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return domain.ErrConfigExists
		}
		return fmt.Errorf("failed to create payment config: %w", err)
	}

	return nil
}

// GetByOwnerID retrieves an owner's credential config
func (r *PostgresPaymentConfigRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.PaymentConfig, error) {
	query := `
		SELECT id, owner_id, client_id, api_key, checksum_key, is_active,
		       created_at, updated_at
		FROM payment_configs
		WHERE owner_id = $1`

	config := &domain.PaymentConfig{}
	err := r.db.Pool().QueryRow(ctx, query, ownerID).Scan(
		&config.ID,
		&config.OwnerID,
		&config.ClientID,
		&config.APIKey,
		&config.ChecksumKey,
		&config.IsActive,
		&config.CreatedAt,
		&config.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to get payment config: %w", err)
	}

	return config, nil
}

// Update persists credential and activation changes
func (r *PostgresPaymentConfigRepository) Update(ctx context.Context, config *domain.PaymentConfig) error {
	query := `
		UPDATE payment_configs SET
			client_id = $2,
			api_key = $3,
			checksum_key = $4,
			is_active = $5,
			updated_at = $6
		WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query,
		config.ID,
		config.ClientID,
		config.APIKey,
		config.ChecksumKey,
		config.IsActive,
		config.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update payment config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrConfigNotFound
	}

	return nil
}

// SetActive toggles an owner's config without touching credentials
func (r *PostgresPaymentConfigRepository) SetActive(ctx context.Context, ownerID string, active bool) error {
	query := `
		UPDATE payment_configs SET
			is_active = $2,
			updated_at = NOW()
		WHERE owner_id = $1`

	result, err := r.db.Pool().Exec(ctx, query, ownerID, active)
	if err != nil {
		return fmt.Errorf("failed to toggle payment config: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrConfigNotFound
	}

	return nil
}

// Ensure PostgresPaymentConfigRepository implements PaymentConfigRepository
var _ PaymentConfigRepository = (*PostgresPaymentConfigRepository)(nil)
