package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/pricing"
	"motorent/internal/repository"
)

// CartService handles cart lines and read-time cart pricing.
type CartService struct {
	carts       repository.CartRepository
	motorcycles repository.MotorcycleRepository
	promos      repository.PromoCodeRepository
	policy      Policy
	logger      *logrus.Logger
	now         func() time.Time
}

// NewCartService creates a new CartService.
func NewCartService(
	carts repository.CartRepository,
	motorcycles repository.MotorcycleRepository,
	promos repository.PromoCodeRepository,
	policy Policy,
	logger *logrus.Logger,
) *CartService {
	return &CartService{
		carts:       carts,
		motorcycles: motorcycles,
		promos:      promos,
		policy:      policy,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (s *CartService) SetClock(now func() time.Time) {
	s.now = now
}

// CartLine is a priced cart line with its per-unit breakup.
type CartLine struct {
	domain.CartItem
	Motorcycle *domain.Motorcycle
	Breakup    pricing.Breakup
}

// CartView is a cart priced at read time.
type CartView struct {
	CustomerID string
	Lines      []CartLine
	Coupon     *domain.PromoCode
	Totals     pricing.Totals
}

// IsEmpty reports whether the cart has no lines.
func (v *CartView) IsEmpty() bool {
	return len(v.Lines) == 0
}

// Items returns the priced cart lines without their breakups.
func (v *CartView) Items() []domain.CartItem {
	items := make([]domain.CartItem, len(v.Lines))
	for i, line := range v.Lines {
		items[i] = line.CartItem
	}
	return items
}

// AddItemRequest contains the parameters for adding a rental line.
type AddItemRequest struct {
	CustomerID      string
	MotorcycleID    string
	Quantity        int
	PickupDate      string
	PickupTime      string
	DropoffDate     string
	DropoffTime     string
	PickupLocation  domain.Branch
	DropoffLocation domain.Branch
}

// AddItem prices a rental line and stores it, replacing any line for the same motorcycle.
func (s *CartService) AddItem(ctx context.Context, req AddItemRequest) (*CartView, error) {
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}

	if req.MotorcycleID == "" {
		return nil, ErrInvalidMotorcycleID
	}

	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if strings.TrimSpace(string(req.PickupLocation)) == "" || strings.TrimSpace(string(req.DropoffLocation)) == "" {
		return nil, ErrInvalidBranch
	}

	pickup, err := pricing.CombineDateTime(req.PickupDate, req.PickupTime, s.policy.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: pickup: %v", ErrInvalidDateTime, err)
	}

	dropoff, err := pricing.CombineDateTime(req.DropoffDate, req.DropoffTime, s.policy.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: dropoff: %v", ErrInvalidDateTime, err)
	}

	period := pricing.CalculatePeriod(pickup, dropoff)
	if period.TotalHours < s.policy.MinBookingHours {
		return nil, fmt.Errorf("%w of %.0f hours", ErrBookingTooShort, s.policy.MinBookingHours)
	}

	if pickup.Before(s.now()) {
		return nil, ErrPickupInPast
	}

	motorcycle, err := s.motorcycles.GetByID(ctx, req.MotorcycleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMotorcycleNotFound
		}
		return nil, err
	}

	available := motorcycle.StockAt(req.PickupLocation)
	if available < 0 {
		return nil, ErrMotorcycleNotAtBranch
	}
	if available < req.Quantity {
		return nil, fmt.Errorf("%w: %d available at %s", ErrInsufficientStock, available, req.PickupLocation)
	}

	cart, err := s.carts.GetOrCreate(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	itemID := uuid.New().String()
	for _, existing := range cart.Items {
		if existing.MotorcycleID == req.MotorcycleID {
			itemID = existing.ID
			break
		}
	}

	quote := pricing.QuoteLine(period, motorcycle, req.Quantity, s.policy.Tax)

	item := &domain.CartItem{
		ID:              itemID,
		MotorcycleID:    motorcycle.ID,
		Quantity:        req.Quantity,
		PickupAt:        pickup,
		DropoffAt:       dropoff,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		Duration:        period.Duration,
		TotalHours:      period.TotalHours,
		RentAmount:      quote.RentAmount,
		TaxPercentage:   quote.TaxPercentage,
		TotalTax:        quote.TotalTax,
	}

	if err := s.carts.UpsertItem(ctx, req.CustomerID, item); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"customer_id":   req.CustomerID,
		"motorcycle_id": req.MotorcycleID,
		"rent_amount":   quote.RentAmount,
	}).Info("cart item saved")

	return s.GetCart(ctx, req.CustomerID)
}

// RemoveItem deletes a line and detaches the coupon if the cart no longer
// meets its minimum.
func (s *CartService) RemoveItem(ctx context.Context, customerID, itemID string) (*CartView, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, ErrCartItemNotFound
	}

	if err := s.carts.RemoveItem(ctx, customerID, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	remaining := append(cart.Items[:idx:idx], cart.Items[idx+1:]...)

	if cart.CouponID != "" {
		keep, err := s.couponStillQualifies(ctx, cart.CouponID, remaining)
		if err != nil {
			return nil, err
		}
		if !keep {
			if err := s.carts.SetCoupon(ctx, customerID, ""); err != nil {
				return nil, err
			}
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"customer_id": customerID,
				"coupon_id":   cart.CouponID,
			}).Info("coupon detached after cart item removal")
		}
	}

	return s.GetCart(ctx, customerID)
}

// GetCart prunes stale lines, re-resolves the coupon and prices the cart.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*CartView, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	cart, err := s.carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := s.pruneStale(ctx, customerID, localizeItems(cart.Items, s.policy.Location), now)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MotorcycleID)
	}

	motorcycles, err := s.motorcycles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		m, ok := motorcycles[items[i].MotorcycleID]
		if !ok {
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"customer_id":   customerID,
				"motorcycle_id": items[i].MotorcycleID,
			}).Warn("cart references unknown motorcycle")
			continue
		}
		items[i].SecurityDeposit = m.SecurityDeposit
	}

	coupon := s.resolveCoupon(ctx, customerID, cart.CouponID, items, now)

	priced, totals := pricing.PriceCart(items, coupon)

	view := &CartView{
		CustomerID: customerID,
		Lines:      make([]CartLine, len(priced)),
		Coupon:     coupon,
		Totals:     totals,
	}

	for i, item := range priced {
		line := CartLine{CartItem: item}
		if m, ok := motorcycles[item.MotorcycleID]; ok {
			line.Motorcycle = m
			line.Breakup = pricing.PriceBreakup(pricing.CalculatePeriod(item.PickupAt, item.DropoffAt), pricing.RatesOf(m))
		}
		view.Lines[i] = line
	}

	return view, nil
}

// localizeItems moves stored line times into the booking zone. The store
// returns them in its session zone, which would shift weekday boundaries.
func localizeItems(items []domain.CartItem, loc *time.Location) []domain.CartItem {
	if loc == nil {
		return items
	}
	for i := range items {
		items[i].PickupAt = items[i].PickupAt.In(loc)
		items[i].DropoffAt = items[i].DropoffAt.In(loc)
	}
	return items
}

// pruneStale drops lines whose pickup is further in the past than the stale
// window. A failed delete only hides the lines from this read.
func (s *CartService) pruneStale(ctx context.Context, customerID string, items []domain.CartItem, now time.Time) []domain.CartItem {
	cutoff := now.Add(-s.policy.CartItemStaleAfter)

	fresh := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if !item.PickupAt.Before(cutoff) {
			fresh = append(fresh, item)
		}
	}

	if len(fresh) == len(items) {
		return fresh
	}

	if _, err := s.carts.RemoveItemsPickingUpBefore(ctx, customerID, cutoff); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("customer_id", customerID).Warn("failed to prune stale cart items")
	}

	return fresh
}

// resolveCoupon follows the cart's weak coupon reference. A coupon that is
// gone, inactive, out of its window, or above the cart total is cleared.
func (s *CartService) resolveCoupon(ctx context.Context, customerID, couponID string, items []domain.CartItem, now time.Time) *domain.PromoCode {
	if couponID == "" {
		return nil
	}

	coupon, err := s.promos.GetByID(ctx, couponID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.WithContext(ctx).WithError(err).WithField("coupon_id", couponID).Error("failed to resolve coupon")
		return nil
	}

	if coupon != nil && coupon.IsApplicableAt(now) && pricing.PreDiscountTotal(items) >= coupon.MinimumCartValue {
		return coupon
	}

	if err := s.carts.SetCoupon(ctx, customerID, ""); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("customer_id", customerID).Warn("failed to clear invalid coupon")
	}

	return nil
}

func (s *CartService) couponStillQualifies(ctx context.Context, couponID string, items []domain.CartItem) (bool, error) {
	coupon, err := s.promos.GetByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return pricing.PreDiscountTotal(items) >= coupon.MinimumCartValue, nil
}
