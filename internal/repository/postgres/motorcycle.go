package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// MotorcycleRepository is a PostgreSQL implementation of repository.MotorcycleRepository.
type MotorcycleRepository struct {
	q Querier
}

// NewMotorcycleRepository creates a new PostgreSQL motorcycle repository.
func NewMotorcycleRepository(db *sql.DB) *MotorcycleRepository {
	return &MotorcycleRepository{q: db}
}

// GetByID retrieves a motorcycle with its per-branch stock.
func (r *MotorcycleRepository) GetByID(ctx context.Context, id string) (*domain.Motorcycle, error) {
	query := `
		SELECT id, make, model, variant, color, price_per_day_mon_thu, price_per_day_fri_sun, security_deposit, categories
		FROM motorcycles WHERE id = $1
	`

	m, err := scanMotorcycle(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	stock, err := r.stockFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	m.AvailableInCities = stock[id]

	return m, nil
}

// GetByIDs retrieves several motorcycles keyed by id.
func (r *MotorcycleRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Motorcycle, error) {
	result := make(map[string]*domain.Motorcycle, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, make, model, variant, color, price_per_day_mon_thu, price_per_day_fri_sun, security_deposit, categories
		FROM motorcycles WHERE id = ANY($1)
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMotorcycle(rows)
		if err != nil {
			return nil, err
		}
		result[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stock, err := r.stockFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, m := range result {
		m.AvailableInCities = stock[id]
	}

	return result, nil
}

func (r *MotorcycleRepository) stockFor(ctx context.Context, ids []string) (map[string][]domain.BranchStock, error) {
	query := `
		SELECT motorcycle_id, branch, quantity
		FROM motorcycle_stock WHERE motorcycle_id = ANY($1)
		ORDER BY motorcycle_id, branch
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stock := make(map[string][]domain.BranchStock)
	for rows.Next() {
		var id string
		var s domain.BranchStock
		if err := rows.Scan(&id, &s.Branch, &s.Quantity); err != nil {
			return nil, err
		}
		stock[id] = append(stock[id], s)
	}

	return stock, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMotorcycle(row rowScanner) (*domain.Motorcycle, error) {
	var m domain.Motorcycle
	var categories []string

	err := row.Scan(
		&m.ID,
		&m.Make,
		&m.Model,
		&m.Variant,
		&m.Color,
		&m.PricePerDayMonThu,
		&m.PricePerDayFriSun,
		&m.SecurityDeposit,
		pq.Array(&categories),
	)
	if err != nil {
		return nil, err
	}

	for _, c := range categories {
		m.Categories = append(m.Categories, domain.Category(c))
	}

	return &m, nil
}
