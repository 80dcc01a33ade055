package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"motorent/internal/middleware"
	"motorent/internal/service"
)

const (
	webhookSignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody         = 1 << 20
)

// PaymentHandler handles payment verification and provider webhooks.
type PaymentHandler struct {
	bookingService *service.BookingService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(bookingService *service.BookingService) *PaymentHandler {
	return &PaymentHandler{bookingService: bookingService}
}

// VerifyPaymentRequest is the HTTP request body returned by the checkout.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// WebhookResponse acknowledges a provider event.
type WebhookResponse struct {
	Event     string `json:"event"`
	BookingID string `json:"booking_id,omitempty"`
	Ignored   bool   `json:"ignored"`
}

// VerifyPayment handles POST /v1/payments/verify
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.VerifyPayment(c.Request.Context(), service.VerifyPaymentRequest{
		Principal: principal,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// Webhook handles POST /v1/payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.bookingService.HandleWebhook(c.Request.Context(), body, c.GetHeader(webhookSignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := WebhookResponse{Event: result.Event, Ignored: result.Ignored}
	if result.Booking != nil {
		resp.BookingID = result.Booking.ID
	}

	respondJSON(c, http.StatusOK, resp)
}
