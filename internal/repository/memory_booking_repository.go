package repository

import (
	"context"
	"sync"

	"github.com/N4thh/homi-nah/internal/domain"
)

// MemoryBookingRepository implements BookingRepository using in-memory
// storage for testing and development
type MemoryBookingRepository struct {
	bookings map[string]*domain.Booking
	mu       sync.RWMutex
}

// NewMemoryBookingRepository creates a new in-memory booking repository
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// Add seeds a booking (for testing; bookings are owned by the booking module)
func (r *MemoryBookingRepository) Add(booking *domain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := *booking
	r.bookings[booking.ID] = &b
}

// GetByID retrieves a booking by its ID
func (r *MemoryBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, exists := r.bookings[id]
	if !exists {
		return nil, domain.ErrBookingNotFound
	}

	b := *booking
	return &b, nil
}

// UpdatePaymentOutcome persists the booking fields a settlement changes
func (r *MemoryBookingRepository) UpdatePaymentOutcome(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; !exists {
		return domain.ErrBookingNotFound
	}

	b := *booking
	r.bookings[booking.ID] = &b

	return nil
}

// Clear clears all data (for testing)
func (r *MemoryBookingRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings = make(map[string]*domain.Booking)
}

// Ensure MemoryBookingRepository implements BookingRepository
var _ BookingRepository = (*MemoryBookingRepository)(nil)
