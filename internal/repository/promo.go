package repository

import (
	"context"
	"time"

	"motorent/internal/domain"
)

// PromoCodeRepository persists promo codes.
type PromoCodeRepository interface {
	// FindActive returns the active code valid at now. Returns ErrNotFound when
	// the code does not exist, is inactive, or is outside its window.
	FindActive(ctx context.Context, code string, now time.Time) (*domain.PromoCode, error)

	// GetByID retrieves a promo code regardless of its window.
	GetByID(ctx context.Context, id string) (*domain.PromoCode, error)

	// Create persists a new promo code. Returns ErrDuplicate if the code is taken.
	Create(ctx context.Context, promo *domain.PromoCode) error
}
