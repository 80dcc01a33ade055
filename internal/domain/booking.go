package domain

import "time"

// BookingStatus represents the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPending               BookingStatus = "PENDING"
	BookingStatusReserved              BookingStatus = "RESERVED"
	BookingStatusConfirmed             BookingStatus = "CONFIRMED"
	BookingStatusCancellationRequested BookingStatus = "CANCELLATION_REQUESTED"
	BookingStatusCancelled             BookingStatus = "CANCELLED"
	BookingStatusStarted               BookingStatus = "STARTED"
	BookingStatusCompleted             BookingStatus = "COMPLETED"
)

// PaymentStatus represents how much of a booking has been paid or refunded.
type PaymentStatus string

const (
	PaymentStatusUnpaid           PaymentStatus = "UNPAID"
	PaymentStatusPartialPaid      PaymentStatus = "PARTIAL_PAID"
	PaymentStatusFullyPaid        PaymentStatus = "FULLY_PAID"
	PaymentStatusRefundInProgress PaymentStatus = "REFUND_IN_PROGRESS"
	PaymentStatusRefunded         PaymentStatus = "REFUNDED"
)

// PaymentAttemptStatus is the status of a single gateway order on a booking.
type PaymentAttemptStatus string

const (
	PaymentAttemptUnpaid PaymentAttemptStatus = "unpaid"
	PaymentAttemptPaid   PaymentAttemptStatus = "paid"
)

// PaymentMode selects how much of a new booking is charged up front.
type PaymentMode string

const (
	PaymentModePartial PaymentMode = "partial"
	PaymentModeFull    PaymentMode = "full"
)

// bookingTransitions is the booking state machine.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:               {BookingStatusReserved, BookingStatusConfirmed, BookingStatusCancellationRequested},
	BookingStatusReserved:              {BookingStatusConfirmed, BookingStatusCancellationRequested},
	BookingStatusConfirmed:             {BookingStatusCancellationRequested, BookingStatusStarted},
	BookingStatusCancellationRequested: {BookingStatusCancelled},
	BookingStatusStarted:               {BookingStatusCompleted},
	BookingStatusCancelled:             {},
	BookingStatusCompleted:             {},
}

// IsValid returns true if the status is a known booking status.
func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo returns true if the state machine allows moving to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsCancelled returns true once a cancellation has been requested or completed.
func (s BookingStatus) IsCancelled() bool {
	return s == BookingStatusCancellationRequested || s == BookingStatusCancelled
}

// IsSettled returns true for states that accept no further payments.
func (s BookingStatus) IsSettled() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCompleted
}

// PaymentAttempt is one gateway order raised against a booking.
type PaymentAttempt struct {
	OrderID   string
	PaymentID string
	Provider  string
	Amount    float64
	Status    PaymentAttemptStatus
	CreatedAt time.Time
	PaidAt    *time.Time
}

// BookingItem is a frozen copy of a cart line. StockHeld records whether the
// branch counter was actually decremented for this line.
type BookingItem struct {
	CartItem
	StockHeld bool
}

// Booking is a point-in-time snapshot of a cart plus payment and lifecycle state.
type Booking struct {
	ID         string
	CustomerID string
	Items      []BookingItem
	CouponID   string
	CouponCode string

	RentTotal            float64
	DiscountTotal        float64
	SecurityDepositTotal float64
	TotalTax             float64
	CartTotal            float64
	DiscountedTotal      float64

	PaidAmount      float64
	RemainingAmount float64
	Status          BookingStatus
	PaymentStatus   PaymentStatus
	Payments        []PaymentAttempt

	CancellationReason string
	CancellationCharge float64
	RefundAmount       float64
	CancelledBy        Role
	CancelledAt        time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EarliestPickup returns the earliest pickup instant across all lines.
func (b *Booking) EarliestPickup() time.Time {
	var earliest time.Time
	for i, item := range b.Items {
		if i == 0 || item.PickupAt.Before(earliest) {
			earliest = item.PickupAt
		}
	}
	return earliest
}

// FindPayment returns the index of the payment attempt for a gateway order, or -1.
func (b *Booking) FindPayment(orderID string) int {
	for i := range b.Payments {
		if b.Payments[i].OrderID == orderID {
			return i
		}
	}
	return -1
}
