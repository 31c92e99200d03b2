package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/repository"
	"github.com/N4thh/homi-nah/pkg/logger"
)

// ConfigService defines the interface for owner gateway credential
// administration. Every mutation invalidates the resolver's cache entry.
type ConfigService interface {
	// GetConfig retrieves the owner's credential config
	GetConfig(ctx context.Context, ownerID string) (*domain.PaymentConfig, error)

	// UpsertConfig creates the owner's config or replaces its credentials
	UpsertConfig(ctx context.Context, ownerID string, req *dto.UpsertConfigRequest) (*domain.PaymentConfig, error)

	// SetConfigActive toggles the owner's config on or off
	SetConfigActive(ctx context.Context, ownerID string, active bool) (*domain.PaymentConfig, error)

	// GetOwnerPaymentStatus reports whether the owner can take payments,
	// with their payment statistics when a config exists
	GetOwnerPaymentStatus(ctx context.Context, ownerID string) (*dto.OwnerPaymentStatusResponse, error)
}

type configServiceImpl struct {
	configs  repository.PaymentConfigRepository
	payments repository.PaymentRepository
	resolver CredentialResolver
}

// NewConfigService creates a new config service
func NewConfigService(configs repository.PaymentConfigRepository, payments repository.PaymentRepository, resolver CredentialResolver) ConfigService {
	return &configServiceImpl{
		configs:  configs,
		payments: payments,
		resolver: resolver,
	}
}

// GetConfig retrieves the owner's credential config
func (s *configServiceImpl) GetConfig(ctx context.Context, ownerID string) (*domain.PaymentConfig, error) {
	return s.configs.GetByOwnerID(ctx, ownerID)
}

// UpsertConfig creates the owner's config or replaces its credentials
func (s *configServiceImpl) UpsertConfig(ctx context.Context, ownerID string, req *dto.UpsertConfigRequest) (*domain.PaymentConfig, error) {
	config, err := s.configs.GetByOwnerID(ctx, ownerID)
	if err == nil {
		return s.replaceCredentials(ctx, config, req)
	}
	if !errors.Is(err, domain.ErrConfigNotFound) {
		return nil, err
	}

	config, err = domain.NewPaymentConfig(ownerID, req.ClientID, req.APIKey, req.ChecksumKey)
	if err != nil {
		return nil, err
	}
	if err := s.configs.Create(ctx, config); err != nil {
		if errors.Is(err, domain.ErrConfigExists) {
			// Lost a create race; update the winner's row instead
			existing, gerr := s.configs.GetByOwnerID(ctx, ownerID)
			if gerr != nil {
				return nil, gerr
			}
			return s.replaceCredentials(ctx, existing, req)
		}
		return nil, err
	}

	s.resolver.Invalidate(ownerID)
	logger.Get().Info(fmt.Sprintf("Payment config created: owner_id=%s", ownerID))
	return config, nil
}

func (s *configServiceImpl) replaceCredentials(ctx context.Context, config *domain.PaymentConfig, req *dto.UpsertConfigRequest) (*domain.PaymentConfig, error) {
	if err := config.UpdateCredentials(req.ClientID, req.APIKey, req.ChecksumKey); err != nil {
		return nil, err
	}
	if err := s.configs.Update(ctx, config); err != nil {
		return nil, err
	}

	s.resolver.Invalidate(config.OwnerID)
	logger.Get().Info(fmt.Sprintf("Payment config updated: owner_id=%s", config.OwnerID))
	return config, nil
}

// SetConfigActive toggles the owner's config on or off
func (s *configServiceImpl) SetConfigActive(ctx context.Context, ownerID string, active bool) (*domain.PaymentConfig, error) {
	if err := s.configs.SetActive(ctx, ownerID, active); err != nil {
		return nil, err
	}
	s.resolver.Invalidate(ownerID)

	config, err := s.configs.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	logger.Get().Info(fmt.Sprintf("Payment config toggled: owner_id=%s, is_active=%t", ownerID, config.IsActive))
	return config, nil
}

// GetOwnerPaymentStatus reports whether the owner can take payments
func (s *configServiceImpl) GetOwnerPaymentStatus(ctx context.Context, ownerID string) (*dto.OwnerPaymentStatusResponse, error) {
	resp := &dto.OwnerPaymentStatusResponse{}

	config, err := s.configs.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			return resp, nil
		}
		return nil, err
	}

	resp.HasConfig = true
	resp.IsActive = config.IsActive
	createdAt := config.CreatedAt
	resp.ConfigCreatedAt = &createdAt

	counts, err := s.payments.CountByOwnerAndStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &dto.PaymentStatistics{
		SuccessfulPayments: counts[domain.PaymentStatusSuccess],
		PendingPayments:    counts[domain.PaymentStatusPending],
		FailedPayments:     counts[domain.PaymentStatusFailed],
	}
	for _, n := range counts {
		stats.TotalPayments += n
	}
	if stats.TotalPayments > 0 {
		rate := float64(stats.SuccessfulPayments) / float64(stats.TotalPayments) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	resp.Statistics = stats

	return resp, nil
}
