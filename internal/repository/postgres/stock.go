package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"motorent/internal/domain"
)

// StockRepository is a PostgreSQL implementation of repository.StockRepository.
type StockRepository struct {
	q Querier
}

// NewStockRepository creates a new PostgreSQL stock repository.
func NewStockRepository(db *sql.DB) *StockRepository {
	return &StockRepository{q: db}
}

// NewStockRepositoryWithTx creates a stock repository using a transaction.
func NewStockRepositoryWithTx(tx *sql.Tx) *StockRepository {
	return &StockRepository{q: tx}
}

type stockKey struct {
	motorcycleID string
	branch       domain.Branch
}

// AdjustStock applies all adjustments in a single UPDATE. Adjustments for the
// same motorcycle and branch are merged first, so they succeed or fail together.
func (r *StockRepository) AdjustStock(ctx context.Context, adjustments []domain.StockAdjustment) ([]bool, error) {
	applied := make([]bool, len(adjustments))
	if len(adjustments) == 0 {
		return applied, nil
	}

	merged := make(map[stockKey]int)
	var order []stockKey
	for _, a := range adjustments {
		k := stockKey{a.MotorcycleID, a.Branch}
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] += a.Delta
	}

	ids := make([]string, len(order))
	branches := make([]string, len(order))
	deltas := make([]int64, len(order))
	for i, k := range order {
		ids[i] = k.motorcycleID
		branches[i] = string(k.branch)
		deltas[i] = int64(merged[k])
	}

	query := `
		UPDATE motorcycle_stock AS s
		SET quantity = s.quantity + a.delta
		FROM unnest($1::text[], $2::text[], $3::int[]) AS a(motorcycle_id, branch, delta)
		WHERE s.motorcycle_id = a.motorcycle_id
		  AND s.branch = a.branch
		  AND s.quantity + a.delta >= 0
		RETURNING s.motorcycle_id, s.branch
	`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids), pq.Array(branches), pq.Array(deltas))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := make(map[stockKey]bool, len(order))
	for rows.Next() {
		var k stockKey
		if err := rows.Scan(&k.motorcycleID, &k.branch); err != nil {
			return nil, err
		}
		updated[k] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, a := range adjustments {
		applied[i] = updated[stockKey{a.MotorcycleID, a.Branch}]
	}

	return applied, nil
}
