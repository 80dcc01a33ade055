package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"motorent/internal/app"
	"motorent/internal/domain"
	"motorent/internal/gateway"
	"motorent/internal/handler"
	"motorent/internal/middleware"
	"motorent/internal/tests"
)

var jwtSecret = []byte("handler-test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	h      *tests.Harness
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()

	h := tests.NewHarness()
	router, err := app.NewRouter(app.RouterDeps{
		CartHandler:    handler.NewCartHandler(h.CartService, h.CouponService),
		CouponHandler:  handler.NewCouponHandler(h.CouponService),
		BookingHandler: handler.NewBookingHandler(h.BookingSvc, "rzp_test_key"),
		PaymentHandler: handler.NewPaymentHandler(h.BookingSvc),
		JWTSecret:      jwtSecret,
		Logger:         h.Logger,
	})
	require.NoError(t, err)

	return &server{h: h, router: router}
}

func (s *server) token(t *testing.T, p domain.Principal) string {
	t.Helper()
	tok, err := middleware.SignToken(jwtSecret, p, jwt.RegisteredClaims{})
	require.NoError(t, err)
	return tok
}

func (s *server) do(t *testing.T, method, path string, principal *domain.Principal, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if principal != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *principal))
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func ptr(p domain.Principal) *domain.Principal { return &p }

const weekdayLine = `{
	"motorcycle_id": "moto-classic",
	"quantity": 1,
	"pickup_date": "2026-01-05",
	"pickup_time": "10:00",
	"dropoff_date": "2026-01-07",
	"dropoff_time": "14:00",
	"pickup_location": "Bangalore",
	"dropoff_location": "Bangalore"
}`

// ──────────────────────────────────────────────
// ROUTING AND AUTH
// ──────────────────────────────────────────────

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())
}

func TestRouter_AuthAndRoles(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodGet, "/v1/cart", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/cart", ptr(s.h.Admin()), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/admin/coupons", ptr(s.h.Customer()), `{}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/cart", ptr(s.h.Customer()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tests.CustomerID, gjson.Get(rec.Body.String(), "customer_id").String())
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "items.#").Int())
}

// ──────────────────────────────────────────────
// CART
// ──────────────────────────────────────────────

func TestCartHandler_AddItem(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/v1/cart/items", ptr(s.h.Customer()), weekdayLine)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Equal(t, "2 days 4 hours", gjson.Get(body, "items.0.duration").String())
	assert.Equal(t, 2400.0, gjson.Get(body, "items.0.rent_amount").Float())
	assert.Equal(t, int64(2), gjson.Get(body, "items.0.breakup.weekday_count").Int())
	assert.Equal(t, 400.0, gjson.Get(body, "items.0.breakup.extra_hours_charge").Float())
	assert.Equal(t, 3072.0, gjson.Get(body, "totals.cart_total").Float())
	assert.Equal(t, 5072.0, gjson.Get(body, "totals.discounted_total").Float())
	assert.Equal(t, "2026-01-05T10:00:00Z", gjson.Get(body, "items.0.pickup_at").String())
}

func TestCartHandler_AddItemValidation(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	cases := []struct {
		name string
		body string
		code int
	}{
		{
			name: "malformed clock time",
			body: `{"motorcycle_id":"moto-classic","quantity":1,"pickup_date":"2026-01-05","pickup_time":"25:00","dropoff_date":"2026-01-07","dropoff_time":"14:00","pickup_location":"Bangalore","dropoff_location":"Bangalore"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: `{"motorcycle_id":"moto-classic","quantity":0,"pickup_date":"2026-01-05","pickup_time":"10:00","dropoff_date":"2026-01-07","dropoff_time":"14:00","pickup_location":"Bangalore","dropoff_location":"Bangalore"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "too short",
			body: `{"motorcycle_id":"moto-classic","quantity":1,"pickup_date":"2026-01-05","pickup_time":"10:00","dropoff_date":"2026-01-05","dropoff_time":"12:00","pickup_location":"Bangalore","dropoff_location":"Bangalore"}`,
			code: http.StatusBadRequest,
		},
		{
			name: "unknown motorcycle",
			body: `{"motorcycle_id":"moto-none","quantity":1,"pickup_date":"2026-01-05","pickup_time":"10:00","dropoff_date":"2026-01-07","dropoff_time":"14:00","pickup_location":"Bangalore","dropoff_location":"Bangalore"}`,
			code: http.StatusNotFound,
		},
		{
			name: "insufficient stock",
			body: `{"motorcycle_id":"moto-classic","quantity":5,"pickup_date":"2026-01-05","pickup_time":"10:00","dropoff_date":"2026-01-07","dropoff_time":"14:00","pickup_location":"Bangalore","dropoff_location":"Bangalore"}`,
			code: http.StatusConflict,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/cart/items", ptr(s.h.Customer()), tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotEmpty(t, gjson.Get(rec.Body.String(), "error").String())
		})
	}

	rec := s.do(t, http.MethodPost, "/v1/cart/items", ptr(s.h.Customer()), cases[0].body)
	assert.Contains(t, gjson.Get(rec.Body.String(), "fields").String(), "PickupTime: hhmm")
}

func TestCartHandler_CouponShortfall(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	s.h.AddCoupon("promo-big", "BIGSPENDER", domain.DiscountFlat, 500, 10000)

	rec := s.do(t, http.MethodPost, "/v1/cart/items", ptr(s.h.Customer()), weekdayLine)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/cart/coupon", ptr(s.h.Customer()), `{"code":"bigspender"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.InDelta(t, 6928, gjson.Get(rec.Body.String(), "shortfall").Float(), 1e-9)

	rec = s.do(t, http.MethodPost, "/v1/cart/coupon", ptr(s.h.Customer()), `{"code":"NOPE"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_RemoveItem(t *testing.T) {
	t.Parallel()
	s := newServer(t)

	rec := s.do(t, http.MethodPost, "/v1/cart/items", ptr(s.h.Customer()), weekdayLine)
	require.Equal(t, http.StatusCreated, rec.Code)
	itemID := gjson.Get(rec.Body.String(), "items.0.id").String()

	rec = s.do(t, http.MethodDelete, "/v1/cart/items/"+itemID, ptr(s.h.Customer()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), gjson.Get(rec.Body.String(), "items.#").Int())

	rec = s.do(t, http.MethodDelete, "/v1/cart/items/"+itemID, ptr(s.h.Customer()), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ──────────────────────────────────────────────
// BOOKINGS AND PAYMENTS
// ──────────────────────────────────────────────

func TestBookingHandler_CheckoutVerifyCancel(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	customer := ptr(s.h.Customer())

	rec := s.do(t, http.MethodPost, "/v1/cart/items", customer, weekdayLine)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/bookings/orders", customer, `{"mode":"partial"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := rec.Body.String()
	orderID := gjson.Get(order, "order_id").String()
	bookingID := gjson.Get(order, "booking.id").String()
	assert.Equal(t, 614.4, gjson.Get(order, "amount").Float())
	assert.Equal(t, int64(61440), gjson.Get(order, "amount_minor").Int())
	assert.Equal(t, "rzp_test_key", gjson.Get(order, "key_id").String())
	assert.Equal(t, "PENDING", gjson.Get(order, "booking.status").String())

	rec = s.do(t, http.MethodPost, "/v1/payments/verify", customer,
		`{"order_id":"`+orderID+`","payment_id":"pay_1","signature":"`+tests.SignPayment(orderID, "pay_1")+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "RESERVED", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "PARTIAL_PAID", gjson.Get(rec.Body.String(), "payment_status").String())
	assert.True(t, gjson.Get(rec.Body.String(), "items.0.stock_held").Bool())

	rec = s.do(t, http.MethodGet, "/v1/bookings/"+bookingID+"/cancellation-estimate", customer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 307.2, gjson.Get(rec.Body.String(), "cancellation_charge").Float(), 1e-9)
	assert.Equal(t, int64(4), gjson.Get(rec.Body.String(), "days_until_pickup").Int())

	rec = s.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", customer, `{"reason":"plans changed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLATION_REQUESTED", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, "CUSTOMER", gjson.Get(rec.Body.String(), "cancelled_by").String())

	rec = s.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", customer, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingHandler_ErrorMapping(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	customer := ptr(s.h.Customer())

	rec := s.do(t, http.MethodPost, "/v1/bookings/orders", customer, `{"mode":"full"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	rec = s.do(t, http.MethodPost, "/v1/bookings/orders", customer, `{"mode":"half"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "invalid mode")

	rec = s.do(t, http.MethodGet, "/v1/bookings/missing", customer, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.do(t, http.MethodPost, "/v1/cart/items", customer, weekdayLine)
	s.h.Gateway.CreateOrderError = &gateway.APIError{StatusCode: 401, Code: "BAD_REQUEST_ERROR", Description: "Authentication failed"}

	rec = s.do(t, http.MethodPost, "/v1/bookings/orders", customer, `{"mode":"full"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, gjson.Get(rec.Body.String(), "error").String(), "Authentication failed")

	rec = s.do(t, http.MethodPost, "/v1/payments/verify", customer,
		`{"order_id":"order_0001","payment_id":"pay_1","signature":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandler_OwnershipAndAdmin(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	booking := s.h.ConfirmedBooking(t)
	path := "/v1/bookings/" + booking.ID

	rec := s.do(t, http.MethodGet, path, ptr(s.h.OtherCustomer()), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, path, ptr(s.h.Admin()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", gjson.Get(rec.Body.String(), "status").String())
	assert.Equal(t, 0.0, gjson.Get(rec.Body.String(), "remaining_amount").Float())

	rec = s.do(t, http.MethodGet, "/v1/bookings", ptr(s.h.Customer()), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), gjson.Get(rec.Body.String(), "#").Int())

	rec = s.do(t, http.MethodPatch, "/v1/admin/bookings/"+booking.ID+"/status", ptr(s.h.Admin()), `{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, "/v1/admin/bookings/"+booking.ID+"/status", ptr(s.h.Admin()), `{"status":"STARTED"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "STARTED", gjson.Get(rec.Body.String(), "status").String())

	rec = s.do(t, http.MethodPatch, "/v1/admin/bookings/"+booking.ID+"/status", ptr(s.h.Customer()), `{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPaymentHandler_Webhook(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	customer := ptr(s.h.Customer())

	s.do(t, http.MethodPost, "/v1/cart/items", customer, weekdayLine)
	rec := s.do(t, http.MethodPost, "/v1/bookings/orders", customer, `{"mode":"full"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := gjson.Get(rec.Body.String(), "order_id").String()
	bookingID := gjson.Get(rec.Body.String(), "booking.id").String()

	event := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_hook","order_id":"` + orderID + `"}}}}`

	post := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewBufferString(event))
		req.Header.Set("X-Razorpay-Signature", signature)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	rec = post("forged")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(tests.SignWebhook([]byte(event)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, bookingID, gjson.Get(rec.Body.String(), "booking_id").String())
	assert.False(t, gjson.Get(rec.Body.String(), "ignored").Bool())

	rec = post(tests.SignWebhook([]byte(event)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gjson.Get(rec.Body.String(), "ignored").Bool())
}

// ──────────────────────────────────────────────
// ADMIN COUPONS
// ──────────────────────────────────────────────

func TestCouponHandler_CreateCoupon(t *testing.T) {
	t.Parallel()
	s := newServer(t)
	admin := ptr(s.h.Admin())

	body := `{"code":"monsoon15","type":"PERCENTAGE","discount_value":15,"minimum_cart_value":1500,` +
		`"start_date":"2026-01-01T00:00:00Z","expiry_date":"2026-03-01T00:00:00Z"}`

	rec := s.do(t, http.MethodPost, "/v1/admin/coupons", admin, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "MONSOON15", gjson.Get(rec.Body.String(), "code").String())
	assert.True(t, gjson.Get(rec.Body.String(), "is_active").Bool())

	rec = s.do(t, http.MethodPost, "/v1/admin/coupons", admin, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/admin/coupons", admin,
		`{"code":"BAD","type":"BOGO","discount_value":15,"start_date":"2026-01-01T00:00:00Z","expiry_date":"2026-03-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
