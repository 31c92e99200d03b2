package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentConfig holds an owner's gateway credentials. An owner has at
// most one active config; payments for their bookings are signed with it.
type PaymentConfig struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	ClientID    string    `json:"client_id"`
	APIKey      string    `json:"api_key"`
	ChecksumKey string    `json:"checksum_key"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Credentials is the resolved credential set used for gateway calls
type Credentials struct {
	ClientID    string
	APIKey      string
	ChecksumKey string
}

// NewPaymentConfig creates a gateway config for an owner
func NewPaymentConfig(ownerID, clientID, apiKey, checksumKey string) (*PaymentConfig, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwnerID
	}
	if err := ValidateCredentials(clientID, apiKey, checksumKey); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &PaymentConfig{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		ClientID:    clientID,
		APIKey:      apiKey,
		ChecksumKey: checksumKey,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidateCredentials checks the minimum lengths the gateway issues
func ValidateCredentials(clientID, apiKey, checksumKey string) error {
	if len(strings.TrimSpace(clientID)) < 5 {
		return ErrInvalidClientID
	}
	if len(strings.TrimSpace(apiKey)) < 10 {
		return ErrInvalidAPIKey
	}
	if len(strings.TrimSpace(checksumKey)) < 10 {
		return ErrInvalidChecksumKey
	}
	return nil
}

// UpdateCredentials replaces the stored credential set
func (c *PaymentConfig) UpdateCredentials(clientID, apiKey, checksumKey string) error {
	if err := ValidateCredentials(clientID, apiKey, checksumKey); err != nil {
		return err
	}
	c.ClientID = clientID
	c.APIKey = apiKey
	c.ChecksumKey = checksumKey
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate enables the config for gateway calls
func (c *PaymentConfig) Activate() {
	c.IsActive = true
	c.UpdatedAt = time.Now().UTC()
}

// Deactivate disables the config; payments for the owner fail closed
func (c *PaymentConfig) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
}

// Credentials returns the credential set for gateway calls
func (c *PaymentConfig) Credentials() Credentials {
	return Credentials{
		ClientID:    c.ClientID,
		APIKey:      c.APIKey,
		ChecksumKey: c.ChecksumKey,
	}
}
