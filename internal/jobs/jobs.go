// Package jobs holds the periodic maintenance tasks: pruning cart lines whose
// pickup has long passed and reporting bookings stuck in PENDING.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// StalePendingEvent is the custom event type recorded by the pending sweep.
const StalePendingEvent = "StalePendingBookings"

// runTimeout bounds a single job run.
const runTimeout = time.Minute

// PendingLister returns PENDING bookings older than a cutoff.
type PendingLister interface {
	ListStalePending(ctx context.Context, olderThan time.Duration) ([]*domain.Booking, error)
}

// EventRecorder receives custom analytics events. *newrelic.Application
// satisfies it.
type EventRecorder interface {
	RecordCustomEvent(eventType string, params map[string]interface{}) error
}

// Config holds job schedules and thresholds.
type Config struct {
	CartPruneInterval    time.Duration
	CartItemStaleAfter   time.Duration
	PendingSweepInterval time.Duration
	PendingStaleAfter    time.Duration
}

// Runner executes the maintenance jobs.
type Runner struct {
	carts    repository.CartRepository
	bookings PendingLister
	events   EventRecorder
	cfg      Config
	logger   *logrus.Logger
	now      func() time.Time
}

// NewRunner creates a new Runner. events may be nil.
func NewRunner(carts repository.CartRepository, bookings PendingLister, events EventRecorder, cfg Config, logger *logrus.Logger) *Runner {
	return &Runner{
		carts:    carts,
		bookings: bookings,
		events:   events,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (r *Runner) SetClock(now func() time.Time) {
	r.now = now
}

// Register schedules both jobs. Runs never overlap; a run still in progress
// pushes the next one back.
func (r *Runner) Register(s gocron.Scheduler) error {
	if _, err := s.NewJob(
		gocron.DurationJob(r.cfg.CartPruneInterval),
		gocron.NewTask(r.runPruneCarts),
		gocron.WithName("prune-stale-cart-items"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("schedule cart prune: %w", err)
	}

	if _, err := s.NewJob(
		gocron.DurationJob(r.cfg.PendingSweepInterval),
		gocron.NewTask(r.runSweepPending),
		gocron.WithName("sweep-stale-pending-bookings"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return fmt.Errorf("schedule pending sweep: %w", err)
	}

	return nil
}

func (r *Runner) runPruneCarts() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, _ = r.PruneCarts(ctx)
}

func (r *Runner) runSweepPending() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, _ = r.SweepPending(ctx)
}

// PruneCarts deletes cart lines across all carts whose pickup is older than
// the stale window.
func (r *Runner) PruneCarts(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.cfg.CartItemStaleAfter)

	removed, err := r.carts.RemoveItemsPickingUpBefore(ctx, "", cutoff)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("cart prune failed")
		return 0, err
	}

	if removed > 0 {
		r.logger.WithContext(ctx).WithFields(logrus.Fields{
			"removed": removed,
			"cutoff":  cutoff,
		}).Info("pruned stale cart items")
	}

	return removed, nil
}

// SweepPending reports PENDING bookings older than the stale window. They
// hold no stock and are left as they are.
func (r *Runner) SweepPending(ctx context.Context) (int, error) {
	stale, err := r.bookings.ListStalePending(ctx, r.cfg.PendingStaleAfter)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("pending sweep failed")
		return 0, err
	}

	if len(stale) == 0 {
		return 0, nil
	}

	oldest := stale[0].CreatedAt
	ids := make([]string, len(stale))
	for i, b := range stale {
		ids[i] = b.ID
		if b.CreatedAt.Before(oldest) {
			oldest = b.CreatedAt
		}
	}

	r.logger.WithContext(ctx).WithFields(logrus.Fields{
		"count":       len(stale),
		"booking_ids": ids,
		"oldest":      oldest,
	}).Warn("bookings stuck in PENDING")

	if r.events != nil {
		if err := r.events.RecordCustomEvent(StalePendingEvent, map[string]interface{}{
			"count":          len(stale),
			"oldestAgeHours": r.now().Sub(oldest).Hours(),
		}); err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("failed to record stale pending event")
		}
	}

	return len(stale), nil
}
