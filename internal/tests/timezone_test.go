package tests

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorent/internal/domain"
	"motorent/internal/service"
)

// ──────────────────────────────────────────────
// 14. BOOKING ZONE
// ──────────────────────────────────────────────

// kolkataHarness runs the fixture in Asia/Kolkata and adds two petrol bikes
// from Fri 2026-01-09 02:00 to Sat 02:00 local. In UTC the pickup falls on
// Thursday evening.
func kolkataHarness(t *testing.T) (*Harness, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	policy := service.DefaultPolicy()
	policy.Location = loc
	h := NewHarnessWithPolicy(policy)

	_, err = h.CartService.AddItem(context.Background(), service.AddItemRequest{
		CustomerID:      CustomerID,
		MotorcycleID:    PetrolBikeID,
		Quantity:        2,
		PickupDate:      "2026-01-09",
		PickupTime:      "02:00",
		DropoffDate:     "2026-01-10",
		DropoffTime:     "02:00",
		PickupLocation:  Branch,
		DropoffLocation: Branch,
	})
	require.NoError(t, err)
	return h, loc
}

func TestZone_CartBreakupMatchesStoredRentAfterUTCReadBack(t *testing.T) {
	t.Parallel()

	h, loc := kolkataHarness(t)
	h.Carts.SetStoredZone(time.UTC)

	view, err := h.CartService.GetCart(context.Background(), CustomerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	line := view.Lines[0]
	assert.Equal(t, loc, line.PickupAt.Location())
	assert.Equal(t, time.Friday, line.PickupAt.Weekday())
	assert.Equal(t, 0, line.Breakup.WeekdayCount)
	assert.Equal(t, 1, line.Breakup.WeekendCount)
	assert.InDelta(t, 1500, line.Breakup.RentPerUnit, 1e-9)
	assert.InDelta(t, 3000, line.RentAmount, 1e-9)
	assert.InDelta(t, line.Breakup.RentPerUnit*float64(line.Quantity), line.RentAmount, 1e-9)
}

func TestZone_CancellationTierCountsLocalCalendarDays(t *testing.T) {
	t.Parallel()

	h, loc := kolkataHarness(t)
	h.Carts.SetStoredZone(time.UTC)

	order := h.Checkout(t, domain.PaymentModeFull)
	_, err := h.Pay(order.OrderID, "pay_full")
	require.NoError(t, err)

	h.Bookings.SetStoredZone(time.UTC)
	// Friday 2026-01-02 10:00 local is still Friday in UTC, but the UTC
	// pickup date is Thursday the 8th, six days out.
	h.Now = time.Date(2026, 1, 2, 10, 0, 0, 0, loc)

	booking, err := h.BookingSvc.GetBooking(context.Background(), h.Customer(), order.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, loc, booking.Items[0].PickupAt.Location())
	assert.InDelta(t, 3000, booking.RentTotal, 1e-9)

	estimate, err := h.BookingSvc.CancellationEstimate(context.Background(), h.Customer(), order.Booking.ID)
	require.NoError(t, err)

	// 3000 rent + 840 tax + 4000 deposit paid; seven local days out only the
	// minimum charge applies.
	assert.Equal(t, 7, estimate.DaysUntilPickup)
	assert.Equal(t, 0.0, estimate.ChargePercentage)
	assert.InDelta(t, 3840, estimate.Basis, 1e-9)
	assert.InDelta(t, 199, estimate.CancellationCharge, 1e-9)
	assert.InDelta(t, 7641, estimate.RefundableAmount, 1e-9)
}
