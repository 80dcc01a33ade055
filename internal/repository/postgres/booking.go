package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
// Lines and payment attempts are stored as JSONB snapshots on the booking row.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `id, customer_id, items, coupon_id, coupon_code,
	rent_total, discount_total, security_deposit_total, total_tax, cart_total, discounted_total,
	paid_amount, remaining_amount, status, payment_status, payments,
	cancellation_reason, cancellation_charge, refund_amount, cancelled_by, cancelled_at,
	created_at, updated_at`

type bookingItemRow struct {
	ID                   string    `json:"id"`
	MotorcycleID         string    `json:"motorcycle_id"`
	Quantity             int       `json:"quantity"`
	PickupAt             time.Time `json:"pickup_at"`
	DropoffAt            time.Time `json:"dropoff_at"`
	PickupLocation       string    `json:"pickup_location"`
	DropoffLocation      string    `json:"dropoff_location"`
	Duration             string    `json:"duration"`
	TotalHours           float64   `json:"total_hours"`
	RentAmount           float64   `json:"rent_amount"`
	DiscountedRentAmount float64   `json:"discounted_rent_amount"`
	TaxPercentage        float64   `json:"tax_percentage"`
	TotalTax             float64   `json:"total_tax"`
	SecurityDeposit      float64   `json:"security_deposit"`
	StockHeld            bool      `json:"stock_held"`
}

type paymentRow struct {
	OrderID   string     `json:"order_id"`
	PaymentID string     `json:"payment_id,omitempty"`
	Provider  string     `json:"provider"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	items, payments, err := encodeBookingDocs(b)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	_, err = r.q.ExecContext(ctx, query,
		b.ID,
		b.CustomerID,
		string(items),
		b.CouponID,
		b.CouponCode,
		b.RentTotal,
		b.DiscountTotal,
		b.SecurityDepositTotal,
		b.TotalTax,
		b.CartTotal,
		b.DiscountedTotal,
		b.PaidAmount,
		b.RemainingAmount,
		b.Status,
		b.PaymentStatus,
		string(payments),
		b.CancellationReason,
		b.CancellationCharge,
		b.RefundAmount,
		b.CancelledBy,
		nullTime(b.CancelledAt),
		b.CreatedAt,
		b.UpdatedAt,
	)

	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// GetByIDForUpdate retrieves a booking and locks its row. Only meaningful on a
// repository built with NewBookingRepositoryWithTx.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// GetByOrderID retrieves the booking that owns a gateway order.
func (r *BookingRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	filter, err := json.Marshal([]map[string]string{{"order_id": orderID}})
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payments @> $1::jsonb`

	b, err := scanBooking(r.q.QueryRowContext(ctx, query, string(filter)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return b, nil
}

// ListByCustomer retrieves a customer's bookings, newest first.
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`

	return r.list(ctx, query, customerID)
}

// ListStalePending retrieves PENDING bookings created before the cutoff.
func (r *BookingRepository) ListStalePending(ctx context.Context, before time.Time) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 AND created_at < $2 ORDER BY created_at`

	return r.list(ctx, query, domain.BookingStatusPending, before)
}

// Update replaces the mutable state of a booking.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	items, payments, err := encodeBookingDocs(b)
	if err != nil {
		return err
	}

	query := `
		UPDATE bookings SET
			items = $2,
			paid_amount = $3,
			remaining_amount = $4,
			status = $5,
			payment_status = $6,
			payments = $7,
			cancellation_reason = $8,
			cancellation_charge = $9,
			refund_amount = $10,
			cancelled_by = $11,
			cancelled_at = $12,
			updated_at = $13
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query,
		b.ID,
		string(items),
		b.PaidAmount,
		b.RemainingAmount,
		b.Status,
		b.PaymentStatus,
		string(payments),
		b.CancellationReason,
		b.CancellationCharge,
		b.RefundAmount,
		b.CancelledBy,
		nullTime(b.CancelledAt),
		b.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var items, payments []byte
	var cancelledAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&items,
		&b.CouponID,
		&b.CouponCode,
		&b.RentTotal,
		&b.DiscountTotal,
		&b.SecurityDepositTotal,
		&b.TotalTax,
		&b.CartTotal,
		&b.DiscountedTotal,
		&b.PaidAmount,
		&b.RemainingAmount,
		&b.Status,
		&b.PaymentStatus,
		&payments,
		&b.CancellationReason,
		&b.CancellationCharge,
		&b.RefundAmount,
		&b.CancelledBy,
		&cancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancelledAt.Valid {
		b.CancelledAt = cancelledAt.Time
	}

	if err := decodeBookingDocs(&b, items, payments); err != nil {
		return nil, fmt.Errorf("booking %s: %w", b.ID, err)
	}

	return &b, nil
}

func encodeBookingDocs(b *domain.Booking) (items, payments []byte, err error) {
	itemRows := make([]bookingItemRow, len(b.Items))
	for i, it := range b.Items {
		itemRows[i] = bookingItemRow{
			ID:                   it.ID,
			MotorcycleID:         it.MotorcycleID,
			Quantity:             it.Quantity,
			PickupAt:             it.PickupAt,
			DropoffAt:            it.DropoffAt,
			PickupLocation:       string(it.PickupLocation),
			DropoffLocation:      string(it.DropoffLocation),
			Duration:             it.Duration,
			TotalHours:           it.TotalHours,
			RentAmount:           it.RentAmount,
			DiscountedRentAmount: it.DiscountedRentAmount,
			TaxPercentage:        it.TaxPercentage,
			TotalTax:             it.TotalTax,
			SecurityDeposit:      it.SecurityDeposit,
			StockHeld:            it.StockHeld,
		}
	}

	paymentRows := make([]paymentRow, len(b.Payments))
	for i, p := range b.Payments {
		paymentRows[i] = paymentRow{
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			Provider:  p.Provider,
			Amount:    p.Amount,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt,
			PaidAt:    p.PaidAt,
		}
	}

	if items, err = json.Marshal(itemRows); err != nil {
		return nil, nil, fmt.Errorf("encode booking items: %w", err)
	}
	if payments, err = json.Marshal(paymentRows); err != nil {
		return nil, nil, fmt.Errorf("encode booking payments: %w", err)
	}

	return items, payments, nil
}

func decodeBookingDocs(b *domain.Booking, items, payments []byte) error {
	var itemRows []bookingItemRow
	if err := json.Unmarshal(items, &itemRows); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}

	var paymentRows []paymentRow
	if err := json.Unmarshal(payments, &paymentRows); err != nil {
		return fmt.Errorf("decode payments: %w", err)
	}

	b.Items = make([]domain.BookingItem, len(itemRows))
	for i, it := range itemRows {
		b.Items[i] = domain.BookingItem{
			CartItem: domain.CartItem{
				ID:                   it.ID,
				MotorcycleID:         it.MotorcycleID,
				Quantity:             it.Quantity,
				PickupAt:             it.PickupAt,
				DropoffAt:            it.DropoffAt,
				PickupLocation:       domain.Branch(it.PickupLocation),
				DropoffLocation:      domain.Branch(it.DropoffLocation),
				Duration:             it.Duration,
				TotalHours:           it.TotalHours,
				RentAmount:           it.RentAmount,
				DiscountedRentAmount: it.DiscountedRentAmount,
				TaxPercentage:        it.TaxPercentage,
				TotalTax:             it.TotalTax,
				SecurityDeposit:      it.SecurityDeposit,
			},
			StockHeld: it.StockHeld,
		}
	}

	b.Payments = make([]domain.PaymentAttempt, len(paymentRows))
	for i, p := range paymentRows {
		b.Payments[i] = domain.PaymentAttempt{
			OrderID:   p.OrderID,
			PaymentID: p.PaymentID,
			Provider:  p.Provider,
			Amount:    p.Amount,
			Status:    domain.PaymentAttemptStatus(p.Status),
			CreatedAt: p.CreatedAt,
			PaidAt:    p.PaidAt,
		}
	}

	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
