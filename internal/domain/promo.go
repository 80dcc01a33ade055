package domain

import "time"

// DiscountType is how a promo code expresses its discount.
type DiscountType string

const (
	DiscountFlat       DiscountType = "FLAT"
	DiscountPercentage DiscountType = "PERCENTAGE"
)

// PromoCode is a coupon that can be attached to a cart.
type PromoCode struct {
	ID               string
	Code             string
	Type             DiscountType
	DiscountValue    float64
	MinimumCartValue float64
	StartDate        time.Time
	ExpiryDate       time.Time
	IsActive         bool
	CreatedAt        time.Time
}

// IsApplicableAt reports whether the code is active and strictly inside its window.
func (p *PromoCode) IsApplicableAt(now time.Time) bool {
	return p.IsActive && p.StartDate.Before(now) && now.Before(p.ExpiryDate)
}
