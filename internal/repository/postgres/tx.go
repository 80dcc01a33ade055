package postgres

import (
	"context"
	"database/sql"

	"motorent/internal/repository"
)

// TxManager runs booking state changes in a single PostgreSQL transaction.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn with stores bound to one transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	stores := repository.Stores{
		Bookings: NewBookingRepositoryWithTx(tx),
		Carts:    NewCartRepositoryWithTx(tx),
		Stock:    NewStockRepositoryWithTx(tx),
	}

	if err = fn(ctx, stores); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}
