package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/pricing"
	"motorent/internal/repository"
)

// CouponService applies promo codes to carts and lets admins create them.
type CouponService struct {
	promos repository.PromoCodeRepository
	carts  repository.CartRepository
	cart   *CartService
	logger *logrus.Logger
	now    func() time.Time
}

// NewCouponService creates a new CouponService.
func NewCouponService(
	promos repository.PromoCodeRepository,
	carts repository.CartRepository,
	cart *CartService,
	logger *logrus.Logger,
) *CouponService {
	return &CouponService{
		promos: promos,
		carts:  carts,
		cart:   cart,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source.
func (s *CouponService) SetClock(now func() time.Time) {
	s.now = now
}

// ApplyCoupon attaches an active coupon to the cart, replacing any other.
func (s *CouponService) ApplyCoupon(ctx context.Context, customerID, code string) (*CartView, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	code = normalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCouponCode
	}

	coupon, err := s.promos.FindActive(ctx, code, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}

	current, err := s.cart.GetCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	total := pricing.PreDiscountTotal(current.Items())
	if total < coupon.MinimumCartValue {
		return nil, &CouponMinimumError{
			Minimum:   coupon.MinimumCartValue,
			CartTotal: roundMoney(total),
			Shortfall: roundMoney(coupon.MinimumCartValue - total),
		}
	}

	if err := s.carts.SetCoupon(ctx, customerID, coupon.ID); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"customer_id": customerID,
		"coupon_id":   coupon.ID,
		"code":        coupon.Code,
	}).Info("coupon applied")

	return s.cart.GetCart(ctx, customerID)
}

// RemoveCoupon clears the cart's coupon reference unconditionally.
func (s *CouponService) RemoveCoupon(ctx context.Context, customerID string) (*CartView, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	if _, err := s.carts.GetOrCreate(ctx, customerID); err != nil {
		return nil, err
	}

	if err := s.carts.SetCoupon(ctx, customerID, ""); err != nil {
		return nil, err
	}

	return s.cart.GetCart(ctx, customerID)
}

// CreateCouponRequest contains the parameters for creating a coupon.
type CreateCouponRequest struct {
	Code             string
	Type             domain.DiscountType
	DiscountValue    float64
	MinimumCartValue float64
	StartDate        time.Time
	ExpiryDate       time.Time
	Inactive         bool
}

// CreateCoupon validates and stores a new coupon. Codes are stored uppercase.
func (s *CouponService) CreateCoupon(ctx context.Context, req CreateCouponRequest) (*domain.PromoCode, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidCouponCode
	}

	switch req.Type {
	case domain.DiscountFlat:
	case domain.DiscountPercentage:
		if req.DiscountValue > 100 {
			return nil, ErrInvalidDiscount
		}
	default:
		return nil, ErrInvalidDiscount
	}

	if req.DiscountValue <= 0 || req.MinimumCartValue < req.DiscountValue {
		return nil, ErrInvalidDiscount
	}

	if !req.StartDate.Before(req.ExpiryDate) {
		return nil, ErrInvalidCouponWindow
	}

	promo := &domain.PromoCode{
		ID:               uuid.New().String(),
		Code:             code,
		Type:             req.Type,
		DiscountValue:    req.DiscountValue,
		MinimumCartValue: req.MinimumCartValue,
		StartDate:        req.StartDate,
		ExpiryDate:       req.ExpiryDate,
		IsActive:         !req.Inactive,
		CreatedAt:        s.now(),
	}

	if err := s.promos.Create(ctx, promo); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrCouponAlreadyExists
		}
		return nil, err
	}

	return promo, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
