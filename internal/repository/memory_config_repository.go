package repository

import (
	"context"
	"sync"
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
)

// MemoryPaymentConfigRepository implements PaymentConfigRepository using
// in-memory storage for testing and development
type MemoryPaymentConfigRepository struct {
	configs map[string]*domain.PaymentConfig // ownerID -> config
	mu      sync.RWMutex
}

// NewMemoryPaymentConfigRepository creates a new in-memory config repository
func NewMemoryPaymentConfigRepository() *MemoryPaymentConfigRepository {
	return &MemoryPaymentConfigRepository{
		configs: make(map[string]*domain.PaymentConfig),
	}
}

// Create inserts an owner's credential config
func (r *MemoryPaymentConfigRepository) Create(ctx context.Context, config *domain.PaymentConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[config.OwnerID]; exists {
		return domain.ErrConfigExists
	}

	c := *config
	r.configs[config.OwnerID] = &c

	return nil
}

// GetByOwnerID retrieves an owner's credential config
func (r *MemoryPaymentConfigRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.PaymentConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	config, exists := r.configs[ownerID]
	if !exists {
		return nil, domain.ErrConfigNotFound
	}

	c := *config
	return &c, nil
}

// Update persists credential and activation changes
func (r *MemoryPaymentConfigRepository) Update(ctx context.Context, config *domain.PaymentConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.configs[config.OwnerID]
	if !exists || existing.ID != config.ID {
		return domain.ErrConfigNotFound
	}

	c := *config
	r.configs[config.OwnerID] = &c

	return nil
}

// SetActive toggles an owner's config without touching credentials
func (r *MemoryPaymentConfigRepository) SetActive(ctx context.Context, ownerID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	config, exists := r.configs[ownerID]
	if !exists {
		return domain.ErrConfigNotFound
	}

	config.IsActive = active
	config.UpdatedAt = time.Now().UTC()

	return nil
}

// Clear clears all data (for testing)
func (r *MemoryPaymentConfigRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs = make(map[string]*domain.PaymentConfig)
}

// Ensure MemoryPaymentConfigRepository implements PaymentConfigRepository
var _ PaymentConfigRepository = (*MemoryPaymentConfigRepository)(nil)
