package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorent/internal/domain"
	"motorent/internal/service"
)

// ──────────────────────────────────────────────
// 1. ADD TO CART
// ──────────────────────────────────────────────

func TestCart_AddItemPricesLine(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	view := h.AddWeekdayLine(t, PetrolBikeID, 1)

	require.Len(t, view.Lines, 1)
	line := view.Lines[0]
	assert.Equal(t, PetrolBikeID, line.MotorcycleID)
	assert.Equal(t, "2 days 4 hours", line.Duration)
	assert.InDelta(t, 52, line.TotalHours, 1e-9)
	assert.InDelta(t, 2400, line.RentAmount, 1e-9)
	assert.InDelta(t, 28, line.TaxPercentage, 1e-9)
	assert.InDelta(t, 672, line.TotalTax, 1e-9)
	assert.InDelta(t, 2000, line.SecurityDeposit, 1e-9)

	assert.Equal(t, 2, line.Breakup.WeekdayCount)
	assert.Equal(t, 0, line.Breakup.WeekendCount)
	assert.InDelta(t, 4, line.Breakup.ExtraHours, 1e-9)
	assert.InDelta(t, 400, line.Breakup.ExtraHoursCharge, 1e-9)
	assert.False(t, line.Breakup.ExtraHoursAsFullDay)

	assert.InDelta(t, 2400, view.Totals.RentTotal, 1e-9)
	assert.InDelta(t, 3072, view.Totals.CartTotal, 1e-9)
	assert.InDelta(t, 5072, view.Totals.DiscountedTotal, 1e-9)
	assert.Nil(t, view.Coupon)
}

func TestCart_AddSameMotorcycleReplacesLine(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	first := h.AddWeekdayLine(t, PetrolBikeID, 1)
	second := h.AddWeekdayLine(t, PetrolBikeID, 2)

	require.Len(t, second.Lines, 1)
	assert.Equal(t, first.Lines[0].ID, second.Lines[0].ID)
	assert.Equal(t, 2, second.Lines[0].Quantity)
	assert.InDelta(t, 4800, second.Lines[0].RentAmount, 1e-9)
	assert.InDelta(t, 4000, second.Totals.SecurityDepositTotal, 1e-9)
}

func TestCart_AddItemRejections(t *testing.T) {
	t.Parallel()

	valid := service.AddItemRequest{
		CustomerID:      CustomerID,
		MotorcycleID:    PetrolBikeID,
		Quantity:        1,
		PickupDate:      "2026-01-05",
		PickupTime:      "10:00",
		DropoffDate:     "2026-01-07",
		DropoffTime:     "14:00",
		PickupLocation:  Branch,
		DropoffLocation: Branch,
	}

	tests := []struct {
		name   string
		mutate func(r *service.AddItemRequest)
		want   error
	}{
		{"missing customer", func(r *service.AddItemRequest) { r.CustomerID = "" }, service.ErrInvalidCustomerID},
		{"missing motorcycle", func(r *service.AddItemRequest) { r.MotorcycleID = "" }, service.ErrInvalidMotorcycleID},
		{"zero quantity", func(r *service.AddItemRequest) { r.Quantity = 0 }, service.ErrInvalidQuantity},
		{"blank branch", func(r *service.AddItemRequest) { r.PickupLocation = " " }, service.ErrInvalidBranch},
		{"bad date", func(r *service.AddItemRequest) { r.PickupDate = "05/01/2026" }, service.ErrInvalidDateTime},
		{"bad time", func(r *service.AddItemRequest) { r.DropoffTime = "25:00" }, service.ErrInvalidDateTime},
		{"five hours", func(r *service.AddItemRequest) {
			r.DropoffDate = "2026-01-05"
			r.DropoffTime = "15:00"
		}, service.ErrBookingTooShort},
		{"dropoff before pickup", func(r *service.AddItemRequest) { r.DropoffDate = "2026-01-04" }, service.ErrBookingTooShort},
		{"pickup in past", func(r *service.AddItemRequest) {
			r.PickupDate = "2025-12-31"
			r.DropoffDate = "2026-01-02"
		}, service.ErrPickupInPast},
		{"unknown motorcycle", func(r *service.AddItemRequest) { r.MotorcycleID = "moto-missing" }, service.ErrMotorcycleNotFound},
		{"not at branch", func(r *service.AddItemRequest) { r.PickupLocation = "Chennai" }, service.ErrMotorcycleNotAtBranch},
		{"insufficient stock", func(r *service.AddItemRequest) { r.Quantity = 4 }, service.ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHarness()
			req := valid
			tt.mutate(&req)

			_, err := h.CartService.AddItem(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)

			if cart := h.Carts.GetCartState(CustomerID); cart != nil {
				assert.Empty(t, cart.Items)
			}
		})
	}
}

func TestCart_ExactlyMinimumDurationAccepted(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	view, err := h.CartService.AddItem(context.Background(), service.AddItemRequest{
		CustomerID:      CustomerID,
		MotorcycleID:    PetrolBikeID,
		Quantity:        1,
		PickupDate:      "2026-01-05",
		PickupTime:      "10:00",
		DropoffDate:     "2026-01-05",
		DropoffTime:     "16:00",
		PickupLocation:  Branch,
		DropoffLocation: OtherBranch,
	})
	require.NoError(t, err)

	// Six leftover hours bill a full weekday.
	assert.InDelta(t, 1000, view.Lines[0].RentAmount, 1e-9)
	assert.True(t, view.Lines[0].Breakup.ExtraHoursAsFullDay)
	assert.Equal(t, OtherBranch, view.Lines[0].DropoffLocation)
}

// ──────────────────────────────────────────────
// 2. CART READS
// ──────────────────────────────────────────────

func TestCart_ReadIsIdempotent(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.AddWeekdayLine(t, PetrolBikeID, 1)
	h.AddWeekdayLine(t, ElectricBikeID, 1)
	promo := h.AddCoupon("promo-1", "FLAT500", domain.DiscountFlat, 500, 1000)
	_, err := h.CouponService.ApplyCoupon(context.Background(), CustomerID, promo.Code)
	require.NoError(t, err)

	first, err := h.CartService.GetCart(context.Background(), CustomerID)
	require.NoError(t, err)
	second, err := h.CartService.GetCart(context.Background(), CustomerID)
	require.NoError(t, err)

	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.Items(), second.Items())
}

func TestCart_StaleLinesPrunedOnRead(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.AddWeekdayLine(t, PetrolBikeID, 1)
	h.Carts.AddItemDirect(CustomerID, domain.CartItem{
		ID:              "stale-line",
		MotorcycleID:    ElectricBikeID,
		Quantity:        1,
		PickupAt:        h.Now.Add(-25 * time.Hour),
		DropoffAt:       h.Now.Add(-1 * time.Hour),
		PickupLocation:  Branch,
		DropoffLocation: Branch,
		RentAmount:      800,
		TaxPercentage:   5,
		TotalTax:        40,
	})

	view, err := h.CartService.GetCart(context.Background(), CustomerID)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, PetrolBikeID, view.Lines[0].MotorcycleID)
	assert.Len(t, h.Carts.GetCartState(CustomerID).Items, 1)
}

func TestCart_PruneFailureOnlyHidesLines(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.Carts.AddItemDirect(CustomerID, domain.CartItem{
		ID:           "stale-line",
		MotorcycleID: PetrolBikeID,
		Quantity:     1,
		PickupAt:     h.Now.Add(-48 * time.Hour),
		DropoffAt:    h.Now.Add(-24 * time.Hour),
	})
	h.Carts.PruneError = ErrMockTimeout

	view, err := h.CartService.GetCart(context.Background(), CustomerID)
	require.NoError(t, err)

	assert.True(t, view.IsEmpty())
	assert.NotEmpty(t, h.EntriesAt(logrusWarn))
}

func TestCart_EmptyCartCreatedLazily(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	view, err := h.CartService.GetCart(context.Background(), "brand-new")
	require.NoError(t, err)

	assert.True(t, view.IsEmpty())
	assert.Zero(t, view.Totals.DiscountedTotal)
	assert.NotNil(t, h.Carts.GetCartState("brand-new"))
}

// ──────────────────────────────────────────────
// 3. REMOVE FROM CART
// ──────────────────────────────────────────────

func TestCart_RemoveItemDetachesCouponBelowMinimum(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.AddWeekdayLine(t, PetrolBikeID, 1)
	view := h.AddWeekdayLine(t, ElectricBikeID, 1)

	// Pre-discount total is 3072 + 2016 = 5088; the petrol line alone is 3072.
	promo := h.AddCoupon("promo-1", "BIG4000", domain.DiscountFlat, 400, 4000)
	_, err := h.CouponService.ApplyCoupon(context.Background(), CustomerID, promo.Code)
	require.NoError(t, err)

	var electricLine string
	for _, line := range view.Lines {
		if line.MotorcycleID == ElectricBikeID {
			electricLine = line.ID
		}
	}

	after, err := h.CartService.RemoveItem(context.Background(), CustomerID, electricLine)
	require.NoError(t, err)

	assert.Nil(t, after.Coupon)
	assert.Empty(t, h.Carts.GetCartState(CustomerID).CouponID)
	assert.InDelta(t, 0, after.Totals.DiscountTotal, 1e-9)
}

func TestCart_RemoveItemKeepsCouponAboveMinimum(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.AddWeekdayLine(t, PetrolBikeID, 1)
	view := h.AddWeekdayLine(t, ElectricBikeID, 1)

	promo := h.AddCoupon("promo-1", "SMALL", domain.DiscountFlat, 300, 3000)
	_, err := h.CouponService.ApplyCoupon(context.Background(), CustomerID, promo.Code)
	require.NoError(t, err)

	var electricLine string
	for _, line := range view.Lines {
		if line.MotorcycleID == ElectricBikeID {
			electricLine = line.ID
		}
	}

	after, err := h.CartService.RemoveItem(context.Background(), CustomerID, electricLine)
	require.NoError(t, err)

	require.NotNil(t, after.Coupon)
	assert.Equal(t, promo.ID, after.Coupon.ID)
	assert.InDelta(t, 300, after.Totals.DiscountTotal, 1e-9)
}

func TestCart_RemoveUnknownItem(t *testing.T) {
	t.Parallel()

	h := NewHarness()
	h.AddWeekdayLine(t, PetrolBikeID, 1)

	_, err := h.CartService.RemoveItem(context.Background(), CustomerID, "missing")
	assert.ErrorIs(t, err, service.ErrCartItemNotFound)
	assert.Len(t, h.Carts.GetCartState(CustomerID).Items, 1)
}
