package postgres

import (
	"context"
	"database/sql"

	"motorent/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

var (
	_ repository.MotorcycleRepository = (*MotorcycleRepository)(nil)
	_ repository.StockRepository      = (*StockRepository)(nil)
	_ repository.CartRepository       = (*CartRepository)(nil)
	_ repository.PromoCodeRepository  = (*PromoCodeRepository)(nil)
	_ repository.BookingRepository    = (*BookingRepository)(nil)
	_ repository.TxManager            = (*TxManager)(nil)
)
