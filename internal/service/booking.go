package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/gateway"
	"motorent/internal/pricing"
	"motorent/internal/redis"
	"motorent/internal/repository"
)

// PaymentGateway is the subset of the payment provider the booking flow uses.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// BookingService drives bookings through checkout, payment, cancellation and
// the admin lifecycle.
type BookingService struct {
	bookings      repository.BookingRepository
	tx            repository.TxManager
	carts         *CartService
	inventory     *InventoryService
	notifications *NotificationService
	gateway       PaymentGateway
	locks         redis.LockStoreInterface
	policy        Policy
	logger        *logrus.Logger
	now           func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings repository.BookingRepository,
	tx repository.TxManager,
	carts *CartService,
	inventory *InventoryService,
	notifications *NotificationService,
	gw PaymentGateway,
	locks redis.LockStoreInterface,
	policy Policy,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:      bookings,
		tx:            tx,
		carts:         carts,
		inventory:     inventory,
		notifications: notifications,
		gateway:       gw,
		locks:         locks,
		policy:        policy,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// GenerateOrderRequest starts a checkout. An empty BookingID checks out the
// principal's cart; otherwise the remaining balance of that booking is charged.
type GenerateOrderRequest struct {
	Principal domain.Principal
	Mode      domain.PaymentMode
	BookingID string
}

// OrderResult is a gateway order raised against a booking.
type OrderResult struct {
	Booking     *domain.Booking
	OrderID     string
	Amount      float64
	AmountMinor int64
	Currency    string
}

// GenerateOrder creates a gateway order and records it on a booking.
func (s *BookingService) GenerateOrder(ctx context.Context, req GenerateOrderRequest) (*OrderResult, error) {
	if req.Principal.ID == "" {
		return nil, ErrInvalidCustomerID
	}

	if req.BookingID != "" {
		return s.repay(ctx, req)
	}

	return s.checkout(ctx, req)
}

func (s *BookingService) checkout(ctx context.Context, req GenerateOrderRequest) (*OrderResult, error) {
	if req.Mode != domain.PaymentModePartial && req.Mode != domain.PaymentModeFull {
		return nil, ErrInvalidPaymentMode
	}

	cart, err := s.carts.GetCart(ctx, req.Principal.ID)
	if err != nil {
		return nil, err
	}

	if cart.IsEmpty() {
		return nil, ErrCartEmpty
	}

	totals := cart.Totals
	amount := roundMoney(totals.DiscountedTotal)
	if req.Mode == domain.PaymentModePartial {
		advance := roundMoney(s.policy.AdvancePaymentPercent / 100 * (totals.DiscountedTotal - totals.SecurityDepositTotal))
		if advance > paymentTolerance {
			amount = advance
		}
	}

	now := s.now()
	booking := &domain.Booking{
		ID:                   uuid.New().String(),
		CustomerID:           req.Principal.ID,
		Items:                make([]domain.BookingItem, len(cart.Lines)),
		RentTotal:            roundMoney(totals.RentTotal),
		DiscountTotal:        roundMoney(totals.DiscountTotal),
		SecurityDepositTotal: roundMoney(totals.SecurityDepositTotal),
		TotalTax:             roundMoney(totals.TotalTax),
		CartTotal:            roundMoney(totals.CartTotal),
		DiscountedTotal:      roundMoney(totals.DiscountedTotal),
		RemainingAmount:      roundMoney(totals.DiscountedTotal),
		Status:               domain.BookingStatusPending,
		PaymentStatus:        domain.PaymentStatusUnpaid,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	for i, line := range cart.Lines {
		booking.Items[i] = domain.BookingItem{CartItem: line.CartItem}
	}

	if cart.Coupon != nil {
		booking.CouponID = cart.Coupon.ID
		booking.CouponCode = cart.Coupon.Code
	}

	order, err := s.createOrder(ctx, booking, amount)
	if err != nil {
		return nil, err
	}

	// The booking must exist before the client is sent to the gateway.
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"customer_id": booking.CustomerID,
		"order_id":    order.ID,
		"amount":      amount,
		"mode":        req.Mode,
	}).Info("booking created")

	return s.orderResult(booking, order, amount), nil
}

func (s *BookingService) repay(ctx context.Context, req GenerateOrderRequest) (*OrderResult, error) {
	var result *OrderResult

	err := s.withBookingLock(ctx, req.BookingID, func() error {
		booking, err := s.getBooking(ctx, s.bookings, req.BookingID)
		if err != nil {
			return err
		}

		if !req.Principal.CanAct(booking.CustomerID) {
			return ErrForbidden
		}

		if booking.Status.IsCancelled() || booking.Status == domain.BookingStatusStarted {
			return ErrBookingNotPayable
		}

		if booking.RemainingAmount <= paymentTolerance {
			return ErrNoRemainingBalance
		}

		amount := roundMoney(booking.RemainingAmount)

		order, err := s.createOrder(ctx, booking, amount)
		if err != nil {
			return err
		}

		booking.UpdatedAt = s.now()
		if err := s.bookings.Update(ctx, booking); err != nil {
			return err
		}

		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"order_id":   order.ID,
			"amount":     amount,
		}).Info("repayment order created")

		result = s.orderResult(booking, order, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// createOrder raises a gateway order and appends it as an unpaid attempt.
func (s *BookingService) createOrder(ctx context.Context, booking *domain.Booking, amount float64) (*gateway.Order, error) {
	order, err := s.gateway.CreateOrder(ctx, toMinorUnits(amount), s.policy.Currency, booking.ID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("booking_id", booking.ID).Error("gateway order creation failed")

		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			return nil, &UpstreamError{Reason: apiErr.Description, Err: err}
		}
		return nil, &UpstreamError{Err: err}
	}

	booking.Payments = append(booking.Payments, domain.PaymentAttempt{
		OrderID:   order.ID,
		Provider:  gateway.Provider,
		Amount:    amount,
		Status:    domain.PaymentAttemptUnpaid,
		CreatedAt: s.now(),
	})

	return order, nil
}

func (s *BookingService) orderResult(booking *domain.Booking, order *gateway.Order, amount float64) *OrderResult {
	return &OrderResult{
		Booking:     booking,
		OrderID:     order.ID,
		Amount:      amount,
		AmountMinor: toMinorUnits(amount),
		Currency:    s.policy.Currency,
	}
}

// VerifyPaymentRequest is the client-side confirmation of a gateway payment.
type VerifyPaymentRequest struct {
	Principal domain.Principal
	OrderID   string
	PaymentID string
	Signature string
}

// VerifyPayment checks the checkout signature and applies the payment.
func (s *BookingService) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*domain.Booking, error) {
	if req.OrderID == "" || req.PaymentID == "" {
		return nil, ErrInvalidPaymentRequest
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
		}).Warn("payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	booking, err := s.bookings.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	if !req.Principal.CanAct(booking.CustomerID) {
		return nil, ErrForbidden
	}

	return s.HandleBooking(ctx, booking.ID, req.OrderID, req.PaymentID)
}

// HandleBooking applies a verified gateway payment to a booking. The first
// payment on a PENDING booking also holds branch stock and clears the cart,
// all in one transaction.
func (s *BookingService) HandleBooking(ctx context.Context, bookingID, orderID, paymentID string) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.withBookingLock(ctx, bookingID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
			b, err := s.getBookingForUpdate(ctx, stores.Bookings, bookingID)
			if err != nil {
				return err
			}

			if b.Status.IsSettled() {
				return ErrBookingAlreadyConfirmed
			}

			if b.Status.IsCancelled() || b.Status == domain.BookingStatusStarted {
				return ErrBookingNotPayable
			}

			idx := b.FindPayment(orderID)
			if idx < 0 {
				return ErrPaymentNotFound
			}

			attempt := &b.Payments[idx]
			if attempt.Status == domain.PaymentAttemptPaid {
				return ErrPaymentAlreadyProcessed
			}

			now := s.now()
			paidAt := now
			attempt.Status = domain.PaymentAttemptPaid
			attempt.PaymentID = paymentID
			attempt.PaidAt = &paidAt

			wasPending := b.Status == domain.BookingStatusPending

			b.PaidAmount = roundMoney(b.PaidAmount + attempt.Amount)
			b.RemainingAmount = roundMoney(b.DiscountedTotal - b.PaidAmount)

			next := domain.BookingStatusReserved
			b.PaymentStatus = domain.PaymentStatusPartialPaid
			if b.RemainingAmount <= paymentTolerance {
				next = domain.BookingStatusConfirmed
				b.PaymentStatus = domain.PaymentStatusFullyPaid
				b.RemainingAmount = 0
			}

			if next != b.Status {
				if !b.Status.CanTransitionTo(next) {
					return ErrInvalidTransition
				}
				b.Status = next
			}
			b.UpdatedAt = now

			if wasPending {
				if err := s.inventory.HoldStock(ctx, stores.Stock, b); err != nil {
					return err
				}

				if err := stores.Carts.Clear(ctx, b.CustomerID); err != nil {
					return err
				}
			}

			if err := stores.Bookings.Update(ctx, b); err != nil {
				return err
			}

			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"booking_id":       booking.ID,
		"order_id":         orderID,
		"payment_id":       paymentID,
		"status":           booking.Status,
		"paid_amount":      booking.PaidAmount,
		"remaining_amount": booking.RemainingAmount,
	}).Info("payment applied")

	s.notifications.NotifyBookingConfirmed(ctx, booking)

	return booking, nil
}

// CancelBookingRequest is a cancellation by the owning customer or an admin.
type CancelBookingRequest struct {
	Principal domain.Principal
	BookingID string
	Reason    string
}

// CancelBooking records the cancellation charge and refund, moves the booking
// to CANCELLATION_REQUESTED and releases its held stock.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelBookingRequest) (*domain.Booking, error) {
	var booking *domain.Booking

	err := s.withBookingLock(ctx, req.BookingID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
			b, err := s.getBookingForUpdate(ctx, stores.Bookings, req.BookingID)
			if err != nil {
				return err
			}

			now := s.now()
			quote, err := s.cancellationQuote(req.Principal, b, now)
			if err != nil {
				return err
			}

			b.Status = domain.BookingStatusCancellationRequested
			b.PaymentStatus = domain.PaymentStatusRefundInProgress
			b.CancellationReason = req.Reason
			b.CancellationCharge = quote.CancellationCharge
			b.RefundAmount = quote.RefundableAmount
			b.CancelledBy = req.Principal.Role
			b.CancelledAt = now
			b.UpdatedAt = now

			if err := s.inventory.ReleaseStock(ctx, stores.Stock, b); err != nil {
				return err
			}

			if err := stores.Bookings.Update(ctx, b); err != nil {
				return err
			}

			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"booking_id":          booking.ID,
		"cancelled_by":        booking.CancelledBy,
		"cancellation_charge": booking.CancellationCharge,
		"refund_amount":       booking.RefundAmount,
	}).Info("booking cancellation requested")

	s.notifications.NotifyBookingCancelled(ctx, booking)

	return booking, nil
}

// CancellationEstimate returns the figures CancelBooking would record now.
func (s *BookingService) CancellationEstimate(ctx context.Context, principal domain.Principal, bookingID string) (*pricing.CancellationQuote, error) {
	b, err := s.getBooking(ctx, s.bookings, bookingID)
	if err != nil {
		return nil, err
	}

	quote, err := s.cancellationQuote(principal, b, s.now())
	if err != nil {
		return nil, err
	}

	return &quote, nil
}

// cancellationQuote is shared by the estimate and the cancellation itself.
func (s *BookingService) cancellationQuote(principal domain.Principal, b *domain.Booking, now time.Time) (pricing.CancellationQuote, error) {
	if !principal.CanAct(b.CustomerID) {
		return pricing.CancellationQuote{}, ErrForbidden
	}

	if b.Status.IsCancelled() {
		return pricing.CancellationQuote{}, ErrBookingAlreadyCancelled
	}

	if !b.Status.CanTransitionTo(domain.BookingStatusCancellationRequested) {
		return pricing.CancellationQuote{}, ErrBookingNotCancellable
	}

	return pricing.CalculateCancellationCharge(pricing.CancellationInputFor(b, now, s.policy.Location), s.policy.MinCancellationCharge), nil
}

// GetBooking returns a booking to its owner or an admin.
func (s *BookingService) GetBooking(ctx context.Context, principal domain.Principal, bookingID string) (*domain.Booking, error) {
	b, err := s.getBooking(ctx, s.bookings, bookingID)
	if err != nil {
		return nil, err
	}

	if !principal.CanAct(b.CustomerID) {
		return nil, ErrForbidden
	}

	return b, nil
}

// ListBookings returns the principal's own bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, principal domain.Principal) ([]*domain.Booking, error) {
	if principal.ID == "" {
		return nil, ErrInvalidCustomerID
	}

	bookings, err := s.bookings.ListByCustomer(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	for _, b := range bookings {
		s.localize(b)
	}

	return bookings, nil
}

// adminTransitions are the lifecycle moves an admin may drive directly.
var adminTransitions = map[domain.BookingStatus]bool{
	domain.BookingStatusStarted:   true,
	domain.BookingStatusCompleted: true,
	domain.BookingStatusCancelled: true,
}

// UpdateStatus moves a booking along the admin-driven part of the lifecycle:
// handover, return, and refund completion.
func (s *BookingService) UpdateStatus(ctx context.Context, principal domain.Principal, bookingID string, status domain.BookingStatus) (*domain.Booking, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	if !adminTransitions[status] {
		return nil, ErrInvalidTransition
	}

	var booking *domain.Booking

	var previous domain.BookingStatus

	err := s.withBookingLock(ctx, bookingID, func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context, stores repository.Stores) error {
			b, err := s.getBookingForUpdate(ctx, stores.Bookings, bookingID)
			if err != nil {
				return err
			}

			if !b.Status.CanTransitionTo(status) {
				return ErrInvalidTransition
			}

			previous = b.Status
			b.Status = status
			if status == domain.BookingStatusCancelled {
				b.PaymentStatus = domain.PaymentStatusRefunded
			}
			b.UpdatedAt = s.now()

			if err := stores.Bookings.Update(ctx, b); err != nil {
				return err
			}

			booking = b
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       previous,
		"status":     booking.Status,
		"admin_id":   principal.ID,
	}).Info("booking status updated")

	return booking, nil
}

// ListStalePending returns PENDING bookings older than olderThan.
func (s *BookingService) ListStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Booking, error) {
	return s.bookings.ListStalePending(ctx, s.now().Add(-olderThan))
}

func (s *BookingService) getBooking(ctx context.Context, repo repository.BookingRepository, id string) (*domain.Booking, error) {
	return s.loadBooking(ctx, id, repo.GetByID)
}

// getBookingForUpdate must run inside WithinTx; the row stays locked until the
// transaction ends.
func (s *BookingService) getBookingForUpdate(ctx context.Context, repo repository.BookingRepository, id string) (*domain.Booking, error) {
	return s.loadBooking(ctx, id, repo.GetByIDForUpdate)
}

func (s *BookingService) loadBooking(ctx context.Context, id string, load func(context.Context, string) (*domain.Booking, error)) (*domain.Booking, error) {
	if id == "" {
		return nil, ErrBookingNotFound
	}

	b, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	s.localize(b)
	return b, nil
}

func (s *BookingService) localize(b *domain.Booking) {
	if s.policy.Location == nil {
		return
	}
	for i := range b.Items {
		b.Items[i].PickupAt = b.Items[i].PickupAt.In(s.policy.Location)
		b.Items[i].DropoffAt = b.Items[i].DropoffAt.In(s.policy.Location)
	}
}

// withBookingLock serializes mutations of one booking across instances.
func (s *BookingService) withBookingLock(ctx context.Context, bookingID string, fn func() error) error {
	if s.locks == nil {
		return fn()
	}

	token, locked, err := s.locks.AcquireBookingLock(ctx, bookingID, redis.BookingLockTTL)
	if err != nil {
		return err
	}

	if !locked {
		return ErrBookingBusy
	}

	defer func() {
		if err := s.locks.ReleaseBookingLock(context.WithoutCancel(ctx), bookingID, token); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("booking_id", bookingID).Warn("failed to release booking lock")
		}
	}()

	return fn()
}
