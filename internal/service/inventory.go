package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"motorent/internal/domain"
	"motorent/internal/repository"
)

// InventoryService keeps branch stock in step with booking confirmation and cancellation.
type InventoryService struct {
	logger *logrus.Logger
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(logger *logrus.Logger) *InventoryService {
	return &InventoryService{logger: logger}
}

// HoldStock decrements the pickup branch of every line in one bulk write and
// records per line whether the decrement was applied. A refused decrement
// means the branch ran out between add-to-cart and payment; the line stays
// unheld and an overbooking alert is logged.
func (s *InventoryService) HoldStock(ctx context.Context, stock repository.StockRepository, b *domain.Booking) error {
	adjustments := make([]domain.StockAdjustment, len(b.Items))
	for i, item := range b.Items {
		adjustments[i] = domain.StockAdjustment{
			MotorcycleID: item.MotorcycleID,
			Branch:       item.PickupLocation,
			Delta:        -item.Quantity,
		}
	}

	applied, err := stock.AdjustStock(ctx, adjustments)
	if err != nil {
		return err
	}

	for i := range b.Items {
		b.Items[i].StockHeld = applied[i]
		if !applied[i] {
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"booking_id":    b.ID,
				"motorcycle_id": b.Items[i].MotorcycleID,
				"branch":        b.Items[i].PickupLocation,
				"quantity":      b.Items[i].Quantity,
			}).Error("overbooking: branch stock exhausted at confirmation")
		}
	}

	return nil
}

// ReleaseStock returns held units to their pickup branch. Lines that were
// never held are skipped, so a confirm-then-cancel cycle restores stock exactly.
func (s *InventoryService) ReleaseStock(ctx context.Context, stock repository.StockRepository, b *domain.Booking) error {
	var held []int
	var adjustments []domain.StockAdjustment
	for i, item := range b.Items {
		if !item.StockHeld {
			continue
		}
		held = append(held, i)
		adjustments = append(adjustments, domain.StockAdjustment{
			MotorcycleID: item.MotorcycleID,
			Branch:       item.PickupLocation,
			Delta:        item.Quantity,
		})
	}

	if len(adjustments) == 0 {
		return nil
	}

	applied, err := stock.AdjustStock(ctx, adjustments)
	if err != nil {
		return err
	}

	for j, i := range held {
		if !applied[j] {
			s.logger.WithContext(ctx).WithFields(logrus.Fields{
				"booking_id":    b.ID,
				"motorcycle_id": b.Items[i].MotorcycleID,
				"branch":        b.Items[i].PickupLocation,
			}).Warn("stock counter missing on release")
			continue
		}
		b.Items[i].StockHeld = false
	}

	return nil
}
