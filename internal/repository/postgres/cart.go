package postgres

import (
	"context"
	"database/sql"
	"time"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// CartRepository is a PostgreSQL implementation of repository.CartRepository.
type CartRepository struct {
	q Querier
}

// NewCartRepository creates a new PostgreSQL cart repository.
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{q: db}
}

// NewCartRepositoryWithTx creates a cart repository using a transaction.
func NewCartRepositoryWithTx(tx *sql.Tx) *CartRepository {
	return &CartRepository{q: tx}
}

// GetOrCreate returns the customer's cart, creating an empty one on first access.
func (r *CartRepository) GetOrCreate(ctx context.Context, customerID string) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (customer_id, updated_at)
		VALUES ($1, now())
		ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING coupon_id, updated_at
	`

	cart := domain.Cart{CustomerID: customerID}
	var couponID sql.NullString

	if err := r.q.QueryRowContext(ctx, query, customerID).Scan(&couponID, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	if couponID.Valid {
		cart.CouponID = couponID.String
	}

	itemsQuery := `
		SELECT id, motorcycle_id, quantity, pickup_at, dropoff_at, pickup_location, dropoff_location,
		       duration, total_hours, rent_amount, tax_percentage, total_tax
		FROM cart_items WHERE customer_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.QueryContext(ctx, itemsQuery, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.ID,
			&item.MotorcycleID,
			&item.Quantity,
			&item.PickupAt,
			&item.DropoffAt,
			&item.PickupLocation,
			&item.DropoffLocation,
			&item.Duration,
			&item.TotalHours,
			&item.RentAmount,
			&item.TaxPercentage,
			&item.TotalTax,
		)
		if err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

// UpsertItem stores a line, replacing any existing line for the same motorcycle.
// The stored line id is written back to item.
func (r *CartRepository) UpsertItem(ctx context.Context, customerID string, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, customer_id, motorcycle_id, quantity, pickup_at, dropoff_at, pickup_location, dropoff_location,
		                        duration, total_hours, rent_amount, tax_percentage, total_tax, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (customer_id, motorcycle_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			pickup_at = EXCLUDED.pickup_at,
			dropoff_at = EXCLUDED.dropoff_at,
			pickup_location = EXCLUDED.pickup_location,
			dropoff_location = EXCLUDED.dropoff_location,
			duration = EXCLUDED.duration,
			total_hours = EXCLUDED.total_hours,
			rent_amount = EXCLUDED.rent_amount,
			tax_percentage = EXCLUDED.tax_percentage,
			total_tax = EXCLUDED.total_tax
		RETURNING id
	`

	err := r.q.QueryRowContext(ctx, query,
		item.ID,
		customerID,
		item.MotorcycleID,
		item.Quantity,
		item.PickupAt,
		item.DropoffAt,
		item.PickupLocation,
		item.DropoffLocation,
		item.Duration,
		item.TotalHours,
		item.RentAmount,
		item.TaxPercentage,
		item.TotalTax,
	).Scan(&item.ID)
	if err != nil {
		return err
	}

	return r.touch(ctx, customerID)
}

// RemoveItem deletes a line.
func (r *CartRepository) RemoveItem(ctx context.Context, customerID, itemID string) error {
	query := `DELETE FROM cart_items WHERE customer_id = $1 AND id = $2`

	result, err := r.q.ExecContext(ctx, query, customerID, itemID)
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

	return r.touch(ctx, customerID)
}

// RemoveItemsPickingUpBefore deletes lines whose pickup is before cutoff.
func (r *CartRepository) RemoveItemsPickingUpBefore(ctx context.Context, customerID string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM cart_items WHERE pickup_at < $1 AND ($2 = '' OR customer_id = $2)`

	result, err := r.q.ExecContext(ctx, query, cutoff, customerID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// SetCoupon replaces the coupon reference. An empty couponID clears it.
func (r *CartRepository) SetCoupon(ctx context.Context, customerID, couponID string) error {
	query := `UPDATE carts SET coupon_id = NULLIF($2, ''), updated_at = now() WHERE customer_id = $1`

	result, err := r.q.ExecContext(ctx, query, customerID, couponID)
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

// Clear removes all lines and the coupon reference.
func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE customer_id = $1`, customerID); err != nil {
		return err
	}

	return r.SetCoupon(ctx, customerID, "")
}

func (r *CartRepository) touch(ctx context.Context, customerID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE carts SET updated_at = now() WHERE customer_id = $1`, customerID)
	return err
}
