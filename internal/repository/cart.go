package repository

import (
	"context"
	"time"

	"motorent/internal/domain"
)

// CartRepository persists one cart per customer.
type CartRepository interface {
	// GetOrCreate returns the customer's cart, creating an empty one on first access.
	GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error)

	// UpsertItem stores a line, replacing any existing line for the same motorcycle.
	UpsertItem(ctx context.Context, customerID string, item *domain.CartItem) error

	// RemoveItem deletes a line. Returns ErrNotFound if the line is not in the cart.
	RemoveItem(ctx context.Context, customerID, itemID string) error

	// RemoveItemsPickingUpBefore deletes lines whose pickup is before cutoff.
	// An empty customerID applies to every cart.
	RemoveItemsPickingUpBefore(ctx context.Context, customerID string, cutoff time.Time) (int64, error)

	// SetCoupon replaces the coupon reference. An empty couponID clears it.
	SetCoupon(ctx context.Context, customerID, couponID string) error

	// Clear removes all lines and the coupon reference.
	Clear(ctx context.Context, customerID string) error
}
