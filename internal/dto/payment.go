package dto

import (
	"time"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/gateway"
)

// CreatePaymentRequest represents a request to start checkout for a booking.
// Amount is optional; when supplied it must equal the booking total.
type CreatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount,omitempty"`
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
	RenterID  string `json:"-"` // Set from auth context
}

// Validate validates the CreatePaymentRequest
func (r *CreatePaymentRequest) Validate() (bool, string) {
	if r.BookingID == "" {
		return false, "Booking ID is required"
	}
	if r.Amount < 0 {
		return false, "Amount cannot be negative"
	}
	return true, ""
}

// CancelPaymentRequest represents a user cancellation
type CancelPaymentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// PaymentListFilter represents filters for listing payments
type PaymentListFilter struct {
	Status  string `form:"status"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	UserID  string `form:"-"`
	Role    string `form:"-"`
}

// SetDefaults sets default values for pagination
func (f *PaymentListFilter) SetDefaults() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 20
	}
}

// Offset converts page-based pagination to a row offset
func (f *PaymentListFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// AccountInfo carries the virtual bank account shown on the payment page
type AccountInfo struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	BankName      string `json:"bank_name"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            string               `json:"id"`
	PaymentCode   string               `json:"payment_code"`
	OrderCode     int64                `json:"order_code"`
	BookingID     string               `json:"booking_id"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	Description   string               `json:"description"`
	Status        domain.PaymentStatus `json:"status"`
	CheckoutURL   string               `json:"checkout_url,omitempty"`
	QRCode        string               `json:"qr_code,omitempty"`
	AccountInfo   *AccountInfo         `json:"account_info,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
	ExpiresAt     time.Time            `json:"expires_at"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CancelledAt   *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// FromPayment converts a domain Payment to PaymentResponse
func FromPayment(p *domain.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:            p.ID,
		PaymentCode:   p.PaymentCode,
		OrderCode:     p.OrderCode,
		BookingID:     p.BookingID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Description:   p.Description,
		Status:        p.Status,
		CheckoutURL:   p.CheckoutURL,
		QRCode:        p.QRCode,
		CancelReason:  p.CancelReason,
		FailureReason: p.FailureReason,
		ExpiresAt:     p.ExpiresAt,
		PaidAt:        p.PaidAt,
		CancelledAt:   p.CancelledAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.BankAccountNumber != "" {
		resp.AccountInfo = &AccountInfo{
			AccountNumber: p.BankAccountNumber,
			AccountName:   p.BankAccountName,
			BankName:      gateway.FormatBankLabel(p.BankBIN),
		}
	}
	return resp
}

// FromPayments converts a slice of domain Payments
func FromPayments(payments []*domain.Payment) []*PaymentResponse {
	out := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, FromPayment(p))
	}
	return out
}

// CreatePaymentResponse represents the checkout artifacts returned on creation
type CreatePaymentResponse struct {
	PaymentID   string               `json:"payment_id"`
	PaymentCode string               `json:"payment_code"`
	OrderCode   int64                `json:"order_code"`
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
	Status      domain.PaymentStatus `json:"status"`
	CheckoutURL string               `json:"checkout_url"`
	QRCode      string               `json:"qr_code,omitempty"`
	AccountInfo *AccountInfo         `json:"account_info,omitempty"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

// FromCreatedPayment converts a freshly created payment to its checkout response
func FromCreatedPayment(p *domain.Payment) *CreatePaymentResponse {
	resp := &CreatePaymentResponse{
		PaymentID:   p.ID,
		PaymentCode: p.PaymentCode,
		OrderCode:   p.OrderCode,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      p.Status,
		CheckoutURL: p.CheckoutURL,
		QRCode:      p.QRCode,
		ExpiresAt:   p.ExpiresAt,
	}
	if p.BankAccountNumber != "" {
		resp.AccountInfo = &AccountInfo{
			AccountNumber: p.BankAccountNumber,
			AccountName:   p.BankAccountName,
			BankName:      gateway.FormatBankLabel(p.BankBIN),
		}
	}
	return resp
}
