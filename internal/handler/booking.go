package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"motorent/internal/domain"
	"motorent/internal/middleware"
	"motorent/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
	gatewayKeyID   string
}

// NewBookingHandler creates a new BookingHandler. The gateway key id is
// returned with every order so the client can open the checkout.
func NewBookingHandler(bookingService *service.BookingService, gatewayKeyID string) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		gatewayKeyID:   gatewayKeyID,
	}
}

// GenerateOrderRequest is the HTTP request body for starting a checkout.
// Set BookingID to pay the remaining balance of an existing booking.
type GenerateOrderRequest struct {
	Mode      string `json:"mode" binding:"omitempty,oneof=partial full"`
	BookingID string `json:"booking_id"`
}

// CancelBookingRequest is the HTTP request body for cancelling a booking.
type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateStatusRequest is the HTTP request body for an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// OrderResponse is the HTTP response for a created gateway order.
type OrderResponse struct {
	OrderID     string          `json:"order_id"`
	Amount      float64         `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
	Booking     BookingResponse `json:"booking"`
}

// BookingItemResponse is one booked line.
type BookingItemResponse struct {
	CartItemResponse
	StockHeld bool `json:"stock_held"`
}

// PaymentAttemptResponse is one gateway order on a booking.
type PaymentAttemptResponse struct {
	OrderID   string  `json:"order_id"`
	PaymentID string  `json:"payment_id,omitempty"`
	Provider  string  `json:"provider"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	PaidAt    string  `json:"paid_at,omitempty"`
}

// BookingResponse is the HTTP response for booking operations.
type BookingResponse struct {
	ID                   string                   `json:"id"`
	CustomerID           string                   `json:"customer_id"`
	Status               string                   `json:"status"`
	PaymentStatus        string                   `json:"payment_status"`
	Items                []BookingItemResponse    `json:"items"`
	CouponCode           string                   `json:"coupon_code,omitempty"`
	RentTotal            float64                  `json:"rent_total"`
	DiscountTotal        float64                  `json:"discount_total"`
	SecurityDepositTotal float64                  `json:"security_deposit_total"`
	TotalTax             float64                  `json:"total_tax"`
	CartTotal            float64                  `json:"cart_total"`
	DiscountedTotal      float64                  `json:"discounted_total"`
	PaidAmount           float64                  `json:"paid_amount"`
	RemainingAmount      float64                  `json:"remaining_amount"`
	Payments             []PaymentAttemptResponse `json:"payments"`
	CancellationReason   string                   `json:"cancellation_reason,omitempty"`
	CancellationCharge   float64                  `json:"cancellation_charge,omitempty"`
	RefundAmount         float64                  `json:"refund_amount,omitempty"`
	CancelledBy          string                   `json:"cancelled_by,omitempty"`
	CancelledAt          string                   `json:"cancelled_at,omitempty"`
	CreatedAt            string                   `json:"created_at"`
	UpdatedAt            string                   `json:"updated_at"`
}

// CancellationEstimateResponse is the charge and refund a cancellation would record.
type CancellationEstimateResponse struct {
	BookingID          string  `json:"booking_id"`
	DaysUntilPickup    int     `json:"days_until_pickup"`
	ChargePercentage   float64 `json:"charge_percentage"`
	CancellationCharge float64 `json:"cancellation_charge"`
	RefundableAmount   float64 `json:"refundable_amount"`
}

// GenerateOrder handles POST /v1/bookings/orders
func (h *BookingHandler) GenerateOrder(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req GenerateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.bookingService.GenerateOrder(c.Request.Context(), service.GenerateOrderRequest{
		Principal: principal,
		Mode:      domain.PaymentMode(req.Mode),
		BookingID: req.BookingID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, OrderResponse{
		OrderID:     result.OrderID,
		Amount:      result.Amount,
		AmountMinor: result.AmountMinor,
		Currency:    result.Currency,
		KeyID:       h.gatewayKeyID,
		Booking:     toBookingResponse(result.Booking),
	})
}

// ListBookings handles GET /v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, toBookingResponse(b))
	}

	respondJSON(c, http.StatusOK, response)
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	booking, err := h.bookingService.GetBooking(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// CancellationEstimate handles GET /v1/bookings/:id/cancellation-estimate
func (h *BookingHandler) CancellationEstimate(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	bookingID := c.Param("id")

	quote, err := h.bookingService.CancellationEstimate(c.Request.Context(), principal, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CancellationEstimateResponse{
		BookingID:          bookingID,
		DaysUntilPickup:    quote.DaysUntilPickup,
		ChargePercentage:   quote.ChargePercentage,
		CancellationCharge: quote.CancellationCharge,
		RefundableAmount:   quote.RefundableAmount,
	})
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req CancelBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), service.CancelBookingRequest{
		Principal: principal,
		BookingID: c.Param("id"),
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// UpdateStatus handles PATCH /v1/admin/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), principal, c.Param("id"), domain.BookingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:                   b.ID,
		CustomerID:           b.CustomerID,
		Status:               string(b.Status),
		PaymentStatus:        string(b.PaymentStatus),
		Items:                make([]BookingItemResponse, 0, len(b.Items)),
		CouponCode:           b.CouponCode,
		RentTotal:            b.RentTotal,
		DiscountTotal:        b.DiscountTotal,
		SecurityDepositTotal: b.SecurityDepositTotal,
		TotalTax:             b.TotalTax,
		CartTotal:            b.CartTotal,
		DiscountedTotal:      b.DiscountedTotal,
		PaidAmount:           b.PaidAmount,
		RemainingAmount:      b.RemainingAmount,
		Payments:             make([]PaymentAttemptResponse, 0, len(b.Payments)),
		CancellationReason:   b.CancellationReason,
		CancellationCharge:   b.CancellationCharge,
		RefundAmount:         b.RefundAmount,
		CancelledBy:          string(b.CancelledBy),
		CancelledAt:          formatTime(b.CancelledAt),
		CreatedAt:            formatTime(b.CreatedAt),
		UpdatedAt:            formatTime(b.UpdatedAt),
	}

	for _, item := range b.Items {
		resp.Items = append(resp.Items, BookingItemResponse{
			CartItemResponse: toCartItemResponse(item.CartItem),
			StockHeld:        item.StockHeld,
		})
	}

	for _, p := range b.Payments {
		attempt := PaymentAttemptResponse{
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			Provider:  p.Provider,
			Amount:    p.Amount,
			Status:    string(p.Status),
			CreatedAt: formatTime(p.CreatedAt),
		}
		if p.PaidAt != nil {
			attempt.PaidAt = formatTime(*p.PaidAt)
		}
		resp.Payments = append(resp.Payments, attempt)
	}

	return resp
}
