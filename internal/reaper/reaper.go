package reaper

import (
	"context"
	"fmt"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// OrderDeleter performs the all-or-nothing cascade deletion of an order
type OrderDeleter interface {
	DeleteOrderCascade(ctx context.Context, orderID int64) error
}

// Notifier sends the final notice after a committed deletion
type Notifier interface {
	DispatchDeleted(ctx context.Context, order *models.PendingOrder, track models.Track)
}

// EventSink records committed deletions
type EventSink interface {
	OrderDeleted(ctx context.Context, order *models.PendingOrder, track models.Track, stage int)
}

// Reaper terminally deletes orders that never completed payment. The
// deletion is a single transaction across the order and its dependent rows;
// the follow-up notification runs only after the commit and its failure is
// never retried, since the deletion already succeeded.
type Reaper struct {
	orders   OrderDeleter
	notifier Notifier
	events   EventSink
	logger   logger.Logger
}

// NewReaper creates a new Reaper
func NewReaper(orders OrderDeleter, notifier Notifier, events EventSink, logger logger.Logger) *Reaper {
	return &Reaper{
		orders:   orders,
		notifier: notifier,
		events:   events,
		logger:   logger,
	}
}

// Reap deletes the order and all dependent rows, then sends the deleted
// notification best-effort. A deletion failure is returned so the monitor
// can retry the order next cycle.
func (r *Reaper) Reap(ctx context.Context, order *models.PendingOrder, track models.Track) error {
	r.logger.Info("Deleting expired unpaid order", "track", track, "orderNumber", order.OrderNumber)

	if err := r.orders.DeleteOrderCascade(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", order.OrderNumber, err)
	}

	r.logger.Info("Order deleted", "track", track, "orderNumber", order.OrderNumber)

	r.notifier.DispatchDeleted(ctx, order, track)

	terminal := models.OnlineTerminalStage
	if track == models.TrackGracePeriod {
		terminal = models.GraceTerminalStage
	}
	r.events.OrderDeleted(ctx, order, track, terminal)

	return nil
}
