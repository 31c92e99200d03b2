package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Payment errors
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentFinal         = errors.New("payment is already in a final state")
	ErrPaymentAccessDenied  = errors.New("payment access denied")
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
	ErrDuplicateOrderCode   = errors.New("order code already exists")
	ErrDuplicatePaymentCode = errors.New("payment code already exists")
	ErrActivePaymentExists  = errors.New("an active payment already exists for this booking")
	ErrStatusConflict       = errors.New("payment status changed concurrently")

	// Booking errors
	ErrBookingNotFound     = errors.New("booking not found")
	ErrNotBookingRenter    = errors.New("payment can only be created by the booking renter")
	ErrBookingCancelled    = errors.New("booking has been cancelled")
	ErrBookingAlreadyPaid  = errors.New("booking has already been paid")
	ErrInvalidBookingPrice = errors.New("booking total price must be positive")

	// Config errors
	ErrConfigNotFound     = errors.New("payment config not found")
	ErrConfigExists       = errors.New("payment config already exists")
	ErrConfigInactive     = errors.New("payment config is not active")
	ErrInvalidClientID    = errors.New("client_id must be at least 5 characters")
	ErrInvalidAPIKey      = errors.New("api_key must be at least 10 characters")
	ErrInvalidChecksumKey = errors.New("checksum_key must be at least 10 characters")

	// Validation errors
	ErrInvalidBookingID   = errors.New("invalid booking id")
	ErrInvalidOwnerID     = errors.New("invalid owner id")
	ErrInvalidRenterID    = errors.New("invalid renter id")
	ErrAmountTooSmall     = errors.New("amount must be at least 1,000 VND")
	ErrAmountTooLarge     = errors.New("amount cannot exceed 100,000,000 VND")
	ErrAmountMismatch     = errors.New("amount must match the booking total price")
	ErrInvalidCurrency    = errors.New("currency must be VND")
	ErrInvalidDescription = errors.New("description must be between 3 and 100 characters")
	ErrInvalidExpiry      = errors.New("expiry duration must be positive")
	ErrMissingCheckoutURL = errors.New("gateway did not return a checkout url")

	// Webhook errors
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrConfigNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBookingID) ||
		errors.Is(err, ErrInvalidOwnerID) ||
		errors.Is(err, ErrInvalidRenterID) ||
		errors.Is(err, ErrAmountTooSmall) ||
		errors.Is(err, ErrAmountTooLarge) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrInvalidCurrency) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidExpiry) ||
		errors.Is(err, ErrInvalidClientID) ||
		errors.Is(err, ErrInvalidAPIKey) ||
		errors.Is(err, ErrInvalidChecksumKey) ||
		errors.Is(err, ErrInvalidBookingPrice) ||
		errors.Is(err, ErrInvalidPaymentStatus)
}

// IsPermissionError checks if the error is an authorization error
func IsPermissionError(err error) bool {
	return errors.Is(err, ErrNotBookingRenter) ||
		errors.Is(err, ErrPaymentAccessDenied)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrBookingCancelled) ||
		errors.Is(err, ErrBookingAlreadyPaid) ||
		errors.Is(err, ErrDuplicateOrderCode) ||
		errors.Is(err, ErrDuplicatePaymentCode) ||
		errors.Is(err, ErrActivePaymentExists) ||
		errors.Is(err, ErrPaymentFinal) ||
		errors.Is(err, ErrStatusConflict) ||
		errors.Is(err, ErrConfigExists)
}

// IsCredentialError checks if the error is a gateway credential error
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrConfigInactive)
}

// GatewayError wraps a failure returned by the payment gateway.
type GatewayError struct {
	Op        string // gateway operation, e.g. "create_link"
	Code      string // provider error code when known
	Transient bool   // true when a retry may succeed
	Err       error
}

// NewGatewayError creates a gateway error for an operation
func NewGatewayError(op, code string, transient bool, err error) *GatewayError {
	return &GatewayError{Op: op, Code: code, Transient: transient, Err: err}
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s failed (code %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError checks if the error came from the gateway
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// IsGatewayTransient checks if the gateway error is safe to retry
func IsGatewayTransient(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Transient
}
