package gateway

import (
	"context"
	"strings"

	"github.com/N4thh/homi-nah/internal/domain"
)

// StatusClass is the classification of a raw provider status string.
// Callers never branch on raw vendor strings; they branch on the class.
type StatusClass string

const (
	StatusSuccess StatusClass = "success"
	StatusFailed  StatusClass = "failed"
	StatusPending StatusClass = "pending"
	StatusUnknown StatusClass = "unknown"
)

// Gateway defines the payment-link operations against the provider.
// Implementations are built per call from an owner's credentials.
type Gateway interface {
	// CreateLink registers a payment request and returns checkout artifacts
	CreateLink(ctx context.Context, req *CreateLinkRequest) (*PaymentLink, error)

	// GetStatus fetches the provider's view of a payment request
	GetStatus(ctx context.Context, orderCode int64) (*PaymentInfo, error)

	// Cancel cancels a payment request on the provider side
	Cancel(ctx context.Context, orderCode int64, reason string) error

	// VerifySignature checks a webhook body against its x-signature header
	VerifySignature(payload []byte, signature string) error

	// Name returns the gateway name
	Name() string
}

// Factory builds a gateway client for an owner's resolved credentials
type Factory interface {
	New(creds domain.Credentials) Gateway
}

// CreateLinkRequest is the payload for creating a checkout link
type CreateLinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	Items       []Item
}

// Item is a checkout line item. The provider caps names at 25 chars.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// MaxItemNameLen is the provider's line-item name limit.
const MaxItemNameLen = 25

// NewItem builds a line item, truncating the name to the provider limit
func NewItem(name string, quantity int, price int64) Item {
	if len(name) > MaxItemNameLen {
		name = name[:MaxItemNameLen]
	}
	return Item{Name: name, Quantity: quantity, Price: price}
}

// PaymentLink holds the checkout artifacts returned by link creation
type PaymentLink struct {
	PaymentLinkID string
	OrderCode     int64
	Amount        int64
	Status        string
	CheckoutURL   string
	QRCode        string
	BIN           string
	AccountNumber string
	AccountName   string
}

// PaymentInfo is the provider's view of a payment request
type PaymentInfo struct {
	OrderCode     int64
	Status        string // raw provider status
	Class         StatusClass
	Amount        int64
	AmountPaid    int64
	TransactionID string
}

// ClassifyStatus maps a raw provider status to its class
func ClassifyStatus(status string) StatusClass {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "PAID", "SUCCESS":
		return StatusSuccess
	case "CANCELLED", "FAILED", "EXPIRED":
		return StatusFailed
	case "PENDING", "PROCESSING", "UNDERPAID":
		return StatusPending
	}
	return StatusUnknown
}
