package service

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// webhookPaymentCaptured is the provider event that settles a payment attempt.
const webhookPaymentCaptured = "payment.captured"

// WebhookResult describes how a provider event was handled.
type WebhookResult struct {
	Event   string
	Booking *domain.Booking
	Ignored bool
}

// HandleWebhook verifies a provider event and applies captured payments. Events
// for payments that were already applied are acknowledged as ignored.
func (s *BookingService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.logger.WithContext(ctx).Warn("webhook signature mismatch")
		return nil, ErrInvalidSignature
	}

	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidPaymentRequest
	}

	parsed := gjson.ParseBytes(body)
	result := &WebhookResult{Event: parsed.Get("event").String()}

	if result.Event != webhookPaymentCaptured {
		result.Ignored = true
		return result, nil
	}

	entity := parsed.Get("payload.payment.entity")
	orderID := entity.Get("order_id").String()
	paymentID := entity.Get("id").String()
	if orderID == "" || paymentID == "" {
		return nil, ErrInvalidPaymentRequest
	}

	entry := s.logger.WithContext(ctx).WithField("order_id", orderID).WithField("payment_id", paymentID)

	booking, err := s.bookings.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	applied, err := s.HandleBooking(ctx, booking.ID, orderID, paymentID)
	switch {
	case errors.Is(err, ErrBookingAlreadyConfirmed), errors.Is(err, ErrPaymentAlreadyProcessed):
		entry.Info("webhook replay acknowledged")
		result.Ignored = true
		result.Booking = booking
		return result, nil
	case err != nil:
		return nil, err
	}

	result.Booking = applied
	return result, nil
}
