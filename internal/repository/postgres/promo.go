package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

const uniqueViolation = "23505"

// PromoCodeRepository is a PostgreSQL implementation of repository.PromoCodeRepository.
type PromoCodeRepository struct {
	q Querier
}

// NewPromoCodeRepository creates a new PostgreSQL promo code repository.
func NewPromoCodeRepository(db *sql.DB) *PromoCodeRepository {
	return &PromoCodeRepository{q: db}
}

const promoColumns = `id, code, type, discount_value, minimum_cart_value, start_date, expiry_date, is_active, created_at`

// FindActive returns the active code valid at now.
func (r *PromoCodeRepository) FindActive(ctx context.Context, code string, now time.Time) (*domain.PromoCode, error) {
	query := `
		SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE code = $1 AND is_active AND start_date < $2 AND expiry_date > $2
	`

	return r.get(ctx, query, code, now)
}

// GetByID retrieves a promo code regardless of its window.
func (r *PromoCodeRepository) GetByID(ctx context.Context, id string) (*domain.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1`

	return r.get(ctx, query, id)
}

// Create persists a new promo code.
func (r *PromoCodeRepository) Create(ctx context.Context, promo *domain.PromoCode) error {
	query := `
		INSERT INTO promo_codes (` + promoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		promo.ID,
		promo.Code,
		promo.Type,
		promo.DiscountValue,
		promo.MinimumCartValue,
		promo.StartDate,
		promo.ExpiryDate,
		promo.IsActive,
		promo.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

func (r *PromoCodeRepository) get(ctx context.Context, query string, args ...any) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := r.q.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.Code,
		&p.Type,
		&p.DiscountValue,
		&p.MinimumCartValue,
		&p.StartDate,
		&p.ExpiryDate,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}
