package tests

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"motorent/internal/domain"
	"motorent/internal/gateway"
	"motorent/internal/service"
)

// Fixture identifiers shared by the service and handler tests.
const (
	CustomerID      = "cust-1"
	OtherCustomerID = "cust-2"
	AdminID         = "admin-1"

	Branch      domain.Branch = "Bangalore"
	OtherBranch domain.Branch = "Mysore"

	PetrolBikeID   = "moto-classic"
	ElectricBikeID = "moto-ather"

	KeySecret     = "rzp_test_secret"
	WebhookSecret = "whsec_test"
)

// Harness wires the real services over the in-memory mocks with a fixed clock.
type Harness struct {
	Now time.Time

	Motorcycles *MockMotorcycleRepository
	Carts       *MockCartRepository
	Promos      *MockPromoCodeRepository
	Bookings    *MockBookingRepository
	Tx          *MockTxManager
	Locks       *MockLockStore
	Gateway     *MockGateway
	Publisher   *MockPublisher

	Logger  *logrus.Logger
	LogHook *test.Hook

	Policy        service.Policy
	Inventory     *service.InventoryService
	Notifications *service.NotificationService
	CartService   *service.CartService
	CouponService *service.CouponService
	BookingSvc    *service.BookingService
}

// NewHarness builds a harness at Thursday 2026-01-01 09:00 UTC with two
// motorcycles stocked at Branch.
func NewHarness() *Harness {
	return NewHarnessWithPolicy(service.DefaultPolicy())
}

// NewHarnessWithPolicy builds the same fixture under a custom policy.
func NewHarnessWithPolicy(policy service.Policy) *Harness {
	h := &Harness{
		Now:         time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		Motorcycles: NewMockMotorcycleRepository(),
		Carts:       NewMockCartRepository(),
		Promos:      NewMockPromoCodeRepository(),
		Bookings:    NewMockBookingRepository(),
		Locks:       NewMockLockStore(),
		Gateway:     NewMockGateway(KeySecret, WebhookSecret),
		Publisher:   NewMockPublisher(),
		Policy:      policy,
	}

	h.Logger, h.LogHook = test.NewNullLogger()
	h.Logger.SetLevel(logrus.DebugLevel)

	h.Tx = NewMockTxManager(h.Bookings, h.Carts, h.Motorcycles)

	h.Motorcycles.AddMotorcycle(&domain.Motorcycle{
		ID:                PetrolBikeID,
		Make:              "Royal Enfield",
		Model:             "Classic 350",
		PricePerDayMonThu: 1000,
		PricePerDayFriSun: 1500,
		SecurityDeposit:   2000,
		Categories:        []domain.Category{domain.CategoryPetrol, domain.CategoryCruiser},
		AvailableInCities: []domain.BranchStock{{Branch: Branch, Quantity: 3}, {Branch: OtherBranch, Quantity: 1}},
	})
	h.Motorcycles.AddMotorcycle(&domain.Motorcycle{
		ID:                ElectricBikeID,
		Make:              "Ather",
		Model:             "450X",
		PricePerDayMonThu: 800,
		PricePerDayFriSun: 1200,
		SecurityDeposit:   1000,
		Categories:        []domain.Category{domain.CategoryElectric, domain.CategoryScooter},
		AvailableInCities: []domain.BranchStock{{Branch: Branch, Quantity: 2}},
	})

	clock := func() time.Time { return h.Now }

	h.Inventory = service.NewInventoryService(h.Logger)
	h.Notifications = service.NewNotificationService(h.Publisher, h.Logger)

	h.CartService = service.NewCartService(h.Carts, h.Motorcycles, h.Promos, h.Policy, h.Logger)
	h.CartService.SetClock(clock)

	h.CouponService = service.NewCouponService(h.Promos, h.Carts, h.CartService, h.Logger)
	h.CouponService.SetClock(clock)

	h.BookingSvc = service.NewBookingService(
		h.Bookings,
		h.Tx,
		h.CartService,
		h.Inventory,
		h.Notifications,
		h.Gateway,
		h.Locks,
		h.Policy,
		h.Logger,
	)
	h.BookingSvc.SetClock(clock)

	return h
}

// Customer returns the default customer principal.
func (h *Harness) Customer() domain.Principal {
	return domain.Principal{ID: CustomerID, Role: domain.RoleCustomer}
}

// OtherCustomer returns a customer who owns nothing.
func (h *Harness) OtherCustomer() domain.Principal {
	return domain.Principal{ID: OtherCustomerID, Role: domain.RoleCustomer}
}

// Admin returns an admin principal.
func (h *Harness) Admin() domain.Principal {
	return domain.Principal{ID: AdminID, Role: domain.RoleAdmin}
}

// AddWeekdayLine adds Mon 2026-01-05 10:00 to Wed 2026-01-07 14:00 at Branch.
// For the petrol bike that is 2400 rent and 672 tax per unit.
func (h *Harness) AddWeekdayLine(t require.TestingT, motorcycleID string, quantity int) *service.CartView {
	view, err := h.CartService.AddItem(context.Background(), service.AddItemRequest{
		CustomerID:      CustomerID,
		MotorcycleID:    motorcycleID,
		Quantity:        quantity,
		PickupDate:      "2026-01-05",
		PickupTime:      "10:00",
		DropoffDate:     "2026-01-07",
		DropoffTime:     "14:00",
		PickupLocation:  Branch,
		DropoffLocation: Branch,
	})
	require.NoError(t, err)
	return view
}

// Checkout creates a booking from the customer's cart.
func (h *Harness) Checkout(t require.TestingT, mode domain.PaymentMode) *service.OrderResult {
	result, err := h.BookingSvc.GenerateOrder(context.Background(), service.GenerateOrderRequest{
		Principal: h.Customer(),
		Mode:      mode,
	})
	require.NoError(t, err)
	return result
}

// Pay verifies a correctly signed payment for an order.
func (h *Harness) Pay(orderID, paymentID string) (*domain.Booking, error) {
	return h.BookingSvc.VerifyPayment(context.Background(), service.VerifyPaymentRequest{
		Principal: h.Customer(),
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: SignPayment(orderID, paymentID),
	})
}

// ConfirmedBooking checks out the petrol bike in full and pays for it.
func (h *Harness) ConfirmedBooking(t require.TestingT) *domain.Booking {
	h.AddWeekdayLine(t, PetrolBikeID, 1)
	order := h.Checkout(t, domain.PaymentModeFull)
	booking, err := h.Pay(order.OrderID, "pay_full")
	require.NoError(t, err)
	return booking
}

// AddCoupon stores an active coupon valid around the harness clock.
func (h *Harness) AddCoupon(id, code string, kind domain.DiscountType, value, minimum float64) *domain.PromoCode {
	promo := &domain.PromoCode{
		ID:               id,
		Code:             code,
		Type:             kind,
		DiscountValue:    value,
		MinimumCartValue: minimum,
		StartDate:        h.Now.AddDate(0, 0, -7),
		ExpiryDate:       h.Now.AddDate(0, 1, 0),
		IsActive:         true,
	}
	h.Promos.AddPromo(promo)
	return promo
}

// SignPayment computes the checkout signature the provider would return.
func SignPayment(orderID, paymentID string) string {
	return gateway.Sign(KeySecret, orderID+"|"+paymentID)
}

// SignWebhook computes the webhook signature header for a body.
func SignWebhook(body []byte) string {
	return gateway.Sign(WebhookSecret, string(body))
}

// EntriesAt returns the captured log entries at a level.
func (h *Harness) EntriesAt(level logrus.Level) []*logrus.Entry {
	var result []*logrus.Entry
	for _, e := range h.LogHook.AllEntries() {
		if e.Level == level {
			result = append(result, e)
		}
	}
	return result
}
