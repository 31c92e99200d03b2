package repository

import (
	"context"

	"github.com/N4thh/homi-nah/internal/domain"
)

// PaymentConfigRepository defines the interface for gateway credential storage
type PaymentConfigRepository interface {
	// Create inserts an owner's credential config
	Create(ctx context.Context, config *domain.PaymentConfig) error

	// GetByOwnerID retrieves an owner's credential config
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.PaymentConfig, error)

	// Update persists credential and activation changes
	Update(ctx context.Context, config *domain.PaymentConfig) error

	// SetActive toggles an owner's config without touching credentials
	SetActive(ctx context.Context, ownerID string, active bool) error
}
