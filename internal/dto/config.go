package dto

import (
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
)

// UpsertConfigRequest represents a request to create or replace an owner's
// gateway credentials
type UpsertConfigRequest struct {
	ClientID    string `json:"client_id" binding:"required"`
	APIKey      string `json:"api_key" binding:"required"`
	ChecksumKey string `json:"checksum_key" binding:"required"`
	OwnerID     string `json:"-"` // Set from auth context
}

// Validate validates the UpsertConfigRequest
func (r *UpsertConfigRequest) Validate() (bool, string) {
	if r.ClientID == "" {
		return false, "Client ID is required"
	}
	if r.APIKey == "" {
		return false, "API key is required"
	}
	if r.ChecksumKey == "" {
		return false, "Checksum key is required"
	}
	return true, ""
}

// ConfigResponse represents an owner's gateway config. Keys are returned as
// stored so the owner can verify what the platform signs with.
type ConfigResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ClientID    string    `json:"client_id"`
	APIKey      string    `json:"api_key"`
	ChecksumKey string    `json:"checksum_key"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromConfig converts a domain PaymentConfig to ConfigResponse
func FromConfig(c *domain.PaymentConfig) *ConfigResponse {
	return &ConfigResponse{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		ClientID:    c.ClientID,
		APIKey:      c.APIKey,
		ChecksumKey: c.ChecksumKey,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// PaymentStatistics aggregates an owner's payment counts
type PaymentStatistics struct {
	TotalPayments      int64   `json:"total_payments"`
	SuccessfulPayments int64   `json:"successful_payments"`
	PendingPayments    int64   `json:"pending_payments"`
	FailedPayments     int64   `json:"failed_payments"`
	SuccessRate        float64 `json:"success_rate"`
}

// OwnerPaymentStatusResponse reports config presence and payment statistics
// for an owner dashboard
type OwnerPaymentStatusResponse struct {
	HasConfig       bool               `json:"has_config"`
	IsActive        bool               `json:"is_active"`
	ConfigCreatedAt *time.Time         `json:"config_created_at,omitempty"`
	Statistics      *PaymentStatistics `json:"statistics,omitempty"`
}
