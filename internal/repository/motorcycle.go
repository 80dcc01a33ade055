package repository

import (
	"context"

	"motorent/internal/domain"
)

// MotorcycleRepository provides read access to fleet reference data.
type MotorcycleRepository interface {
	// GetByID retrieves a motorcycle with its per-branch stock.
	GetByID(ctx context.Context, id string) (*domain.Motorcycle, error)

	// GetByIDs retrieves rate data for several motorcycles keyed by id. Unknown
	// ids are absent from the result. Implementations may serve it from a cache,
	// in which case AvailableInCities is not populated; use GetByID for stock.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Motorcycle, error)
}

// StockRepository mutates per-branch stock counters.
type StockRepository interface {
	// AdjustStock applies all adjustments as one statement. A negative delta is
	// only applied when the counter stays non-negative. The returned slice
	// reports, per adjustment, whether it was applied.
	AdjustStock(ctx context.Context, adjustments []domain.StockAdjustment) ([]bool, error)
}
