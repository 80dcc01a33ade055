package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
)

// NotificationType represents the type of notification. It doubles as the
// topic the notification is published to.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	RecipientID string           `json:"recipient_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Publisher delivers a message body to a topic. *nsq.Producer satisfies it.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// NotificationService hands booking events to the delivery pipeline. Delivery
// failures are logged and never returned.
type NotificationService struct {
	publisher Publisher
	logger    *logrus.Logger
}

// NewNotificationService creates a new NotificationService. A nil publisher
// only logs notifications.
func NewNotificationService(publisher Publisher, logger *logrus.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, logger: logger}
}

// NotifyBookingConfirmed tells the customer a payment was applied to a booking.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, b *domain.Booking) {
	message := fmt.Sprintf("Booking %s is confirmed. Paid %.2f in full", b.ID, b.PaidAmount)
	if b.RemainingAmount > 0 {
		message = fmt.Sprintf("Booking %s is reserved. Paid %.2f, remaining %.2f", b.ID, b.PaidAmount, b.RemainingAmount)
	}

	s.send(ctx, Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: b.CustomerID,
		Title:       "Booking Confirmed",
		Message:     message,
		Data: map[string]any{
			"booking_id":       b.ID,
			"status":           b.Status,
			"payment_status":   b.PaymentStatus,
			"paid_amount":      b.PaidAmount,
			"remaining_amount": b.RemainingAmount,
			"pickup_at":        b.EarliestPickup(),
		},
	})
}

// NotifyBookingCancelled tells the customer a cancellation was recorded.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, b *domain.Booking) {
	s.send(ctx, Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: b.CustomerID,
		Title:       "Booking Cancelled",
		Message: fmt.Sprintf("Booking %s was cancelled. Cancellation charge %.2f, refund %.2f",
			b.ID, b.CancellationCharge, b.RefundAmount),
		Data: map[string]any{
			"booking_id":          b.ID,
			"cancelled_by":        b.CancelledBy,
			"reason":              b.CancellationReason,
			"cancellation_charge": b.CancellationCharge,
			"refund_amount":       b.RefundAmount,
		},
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) {
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()

	entry := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"type":            notification.Type,
		"recipient_id":    notification.RecipientID,
	})

	if s.publisher == nil {
		entry.Info(notification.Message)
		return
	}

	body, err := json.Marshal(notification)
	if err != nil {
		entry.WithError(err).Error("failed to encode notification")
		return
	}

	if err := s.publisher.Publish(string(notification.Type), body); err != nil {
		entry.WithError(err).Warn("failed to publish notification")
		return
	}

	entry.Debug("notification published")
}
