package repository

import "context"

// Stores are the repositories that take part in a booking transaction.
type Stores struct {
	Bookings BookingRepository
	Carts    CartRepository
	Stock    StockRepository
}

// TxManager runs fn with transaction-scoped stores. The transaction commits
// when fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
