package repository

import (
	"context"
	"time"

	"motorent/internal/domain"
)

// BookingRepository persists bookings with their lines and payment attempts.
type BookingRepository interface {
	// Create persists a new booking.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// GetByIDForUpdate retrieves a booking and locks its row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)

	// GetByOrderID retrieves the booking that owns a gateway order.
	GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error)

	// ListByCustomer retrieves a customer's bookings, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error)

	// Update replaces the mutable state of a booking.
	Update(ctx context.Context, booking *domain.Booking) error

	// ListStalePending retrieves PENDING bookings created before the cutoff.
	ListStalePending(ctx context.Context, before time.Time) ([]*domain.Booking, error)
}
