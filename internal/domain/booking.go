package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingPaymentStatus represents the payment state of a booking
type BookingPaymentStatus string

const (
	BookingPaymentUnpaid BookingPaymentStatus = "unpaid"
	BookingPaymentPaid   BookingPaymentStatus = "paid"
	BookingPaymentFailed BookingPaymentStatus = "failed"
)

// Booking is the payment module's view of a booking. The booking service
// owns the full record; payments only read it and flip its payment fields.
type Booking struct {
	ID            string               `json:"id"`
	RenterID      string               `json:"renter_id"`
	OwnerID       string               `json:"owner_id"`
	HomeID        string               `json:"home_id"`
	TotalPrice    int64                `json:"total_price"`
	Status        BookingStatus        `json:"status"`
	PaymentStatus BookingPaymentStatus `json:"payment_status"`
	PaymentDate   *time.Time           `json:"payment_date,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// BelongsToRenter checks if the booking belongs to the specified renter
func (b *Booking) BelongsToRenter(renterID string) bool {
	return b.RenterID == renterID
}

// IsCancelled checks if the booking has been cancelled
func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// IsPaid checks if the booking has been paid
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == BookingPaymentPaid
}

// MarkPaid confirms the booking after a successful payment
func (b *Booking) MarkPaid(paidAt time.Time) error {
	if b.IsPaid() {
		return ErrBookingAlreadyPaid
	}
	b.Status = BookingStatusConfirmed
	b.PaymentStatus = BookingPaymentPaid
	b.PaymentDate = &paidAt
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPaymentFailed records a failed payment attempt on the booking
func (b *Booking) MarkPaymentFailed() error {
	if b.IsPaid() {
		return ErrBookingAlreadyPaid
	}
	b.PaymentStatus = BookingPaymentFailed
	b.UpdatedAt = time.Now().UTC()
	return nil
}
