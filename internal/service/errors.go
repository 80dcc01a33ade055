package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCustomerID is returned when customer ID is empty.
	ErrInvalidCustomerID = errors.New("invalid customer id")

	// ErrInvalidMotorcycleID is returned when motorcycle ID is empty.
	ErrInvalidMotorcycleID = errors.New("invalid motorcycle id")

	// ErrInvalidQuantity is returned when a cart line quantity is below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidBranch is returned when a pickup or dropoff branch is empty.
	ErrInvalidBranch = errors.New("invalid branch")

	// ErrInvalidDateTime is returned when a pickup or dropoff date/time cannot be parsed.
	ErrInvalidDateTime = errors.New("invalid date or time")

	// ErrBookingTooShort is returned when the rental window is below the minimum duration.
	ErrBookingTooShort = errors.New("booking duration is below the minimum")

	// ErrPickupInPast is returned when the pickup instant has already passed.
	ErrPickupInPast = errors.New("pickup time is in the past")

	// ErrCartEmpty is returned when checking out an empty cart.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrInvalidCouponCode is returned when a coupon code is empty.
	ErrInvalidCouponCode = errors.New("invalid coupon code")

	// ErrInvalidDiscount is returned when coupon discount settings are inconsistent.
	ErrInvalidDiscount = errors.New("invalid coupon discount")

	// ErrInvalidCouponWindow is returned when a coupon start date is not before its expiry.
	ErrInvalidCouponWindow = errors.New("coupon start date must be before expiry date")

	// ErrCouponMinimumNotMet is returned when the cart total is below a coupon's minimum.
	ErrCouponMinimumNotMet = errors.New("cart total is below the coupon minimum")

	// ErrInvalidPaymentMode is returned when the payment mode is neither partial nor full.
	ErrInvalidPaymentMode = errors.New("invalid payment mode")

	// ErrInvalidPaymentRequest is returned when order or payment ID is empty.
	ErrInvalidPaymentRequest = errors.New("order id and payment id are required")

	// ErrInvalidSignature is returned when a gateway signature does not match.
	ErrInvalidSignature = errors.New("payment signature mismatch")

	// ErrInvalidStatus is returned for an unknown booking status.
	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrMotorcycleNotFound is returned when a motorcycle does not exist.
	ErrMotorcycleNotFound = errors.New("motorcycle not found")

	// ErrCartItemNotFound is returned when a cart line does not exist.
	ErrCartItemNotFound = errors.New("cart item not found")

	// ErrCouponNotFound is returned when no active coupon matches a code.
	ErrCouponNotFound = errors.New("coupon not found or expired")

	// ErrBookingNotFound is returned when a booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPaymentNotFound is returned when a booking has no payment attempt for an order.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrForbidden is returned when the principal may not act on a resource.
	ErrForbidden = errors.New("forbidden")

	// ErrMotorcycleNotAtBranch is returned when a motorcycle is not offered at the pickup branch.
	ErrMotorcycleNotAtBranch = errors.New("motorcycle is not available at this branch")

	// ErrInsufficientStock is returned when a branch holds fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCouponAlreadyExists is returned when creating a coupon with a taken code.
	ErrCouponAlreadyExists = errors.New("coupon code already exists")

	// ErrBookingAlreadyConfirmed is returned when verifying payment on a confirmed booking.
	ErrBookingAlreadyConfirmed = errors.New("booking already confirmed")

	// ErrBookingNotPayable is returned when paying for a cancelled or started booking.
	ErrBookingNotPayable = errors.New("booking cannot accept payments in current state")

	// ErrNoRemainingBalance is returned when repaying a booking with nothing left to pay.
	ErrNoRemainingBalance = errors.New("booking has no remaining balance")

	// ErrPaymentAlreadyProcessed is returned when a payment attempt is already paid.
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")

	// ErrBookingAlreadyCancelled is returned when cancelling a cancelled booking.
	ErrBookingAlreadyCancelled = errors.New("booking already cancelled")

	// ErrBookingNotCancellable is returned when a booking is past the point of cancellation.
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled in current state")

	// ErrInvalidTransition is returned when the state machine forbids a status change.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrBookingBusy is returned when another request holds the booking lock.
	ErrBookingBusy = errors.New("booking is being updated, retry shortly")

	// ErrGatewayUnavailable is returned when the payment gateway rejects or fails order creation.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// CouponMinimumError reports how far a cart is below a coupon's minimum value.
type CouponMinimumError struct {
	Minimum   float64
	CartTotal float64
	Shortfall float64
}

func (e *CouponMinimumError) Error() string {
	return fmt.Sprintf("%s: add %.2f more to use this coupon", ErrCouponMinimumNotMet, e.Shortfall)
}

func (e *CouponMinimumError) Unwrap() error {
	return ErrCouponMinimumNotMet
}

// UpstreamError carries the payment gateway's reason for a failed call.
type UpstreamError struct {
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrGatewayUnavailable, e.Reason)
	}
	return ErrGatewayUnavailable.Error()
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGatewayUnavailable}
	}
	return []error{ErrGatewayUnavailable, e.Err}
}
