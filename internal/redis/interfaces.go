package redis

import (
	"context"
	"time"

	"motorent/internal/repository"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (string, bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID, token string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface              = (*LockStore)(nil)
	_ repository.MotorcycleRepository = (*MotorcycleCache)(nil)
)
