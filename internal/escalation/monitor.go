package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// CandidateQuery returns the orders currently eligible for a track
type CandidateQuery func(ctx context.Context) ([]*models.PendingOrder, error)

// StageStore persists stage advances. AdvanceNotificationStage must be
// conditional on the stored stage being lower and report whether the update
// won.
type StageStore interface {
	AdvanceNotificationStage(ctx context.Context, orderID int64, stage int) (bool, error)
}

// Notifier dispatches a stage reminder through the configured channels
type Notifier interface {
	DispatchStage(ctx context.Context, order *models.PendingOrder, track models.Track, stage int)
}

// Deleter removes an order that crossed its terminal threshold
type Deleter interface {
	Reap(ctx context.Context, order *models.PendingOrder, track models.Track) error
}

// EventSink records lifecycle events after a side effect has been applied
type EventSink interface {
	ReminderSent(ctx context.Context, order *models.PendingOrder, track models.Track, stage int)
}

// Monitor runs one track's read-decide-act-persist sequence: query the
// eligible orders, decide each order's action from its age and stage, then
// either advance the stage and notify or hand the order to the reaper.
// Per-order failures are logged and the order is left for the next cycle.
type Monitor struct {
	track      models.Track
	policy     *Policy
	candidates CandidateQuery
	stages     StageStore
	notifier   Notifier
	reaper     Deleter
	events     EventSink
	now        func() time.Time
	logger     logger.Logger
}

// NewMonitor creates a monitor for one track. The clock is injected so
// threshold boundaries are testable; pass models.GetCurrentTime in
// production.
func NewMonitor(
	policy *Policy,
	candidates CandidateQuery,
	stages StageStore,
	notifier Notifier,
	reaper Deleter,
	events EventSink,
	now func() time.Time,
	logger logger.Logger,
) *Monitor {
	return &Monitor{
		track:      policy.Track,
		policy:     policy,
		candidates: candidates,
		stages:     stages,
		notifier:   notifier,
		reaper:     reaper,
		events:     events,
		now:        now,
		logger:     logger,
	}
}

// Track returns the track this monitor processes
func (m *Monitor) Track() models.Track {
	return m.track
}

// Run executes one processing cycle for the track. Only a failure of the
// eligibility query itself is returned; per-order errors never abort the
// batch.
func (m *Monitor) Run(ctx context.Context) error {
	orders, err := m.candidates(ctx)

	if err != nil {
		return fmt.Errorf("failed to query %s candidates: %w", m.track, err)
	}

	if len(orders) == 0 {
		m.logger.Debug("No eligible orders", "track", m.track)
		return nil
	}

	m.logger.Info("Processing eligible orders", "track", m.track, "count", len(orders))

	for _, order := range orders {
		m.process(ctx, order)
	}

	return nil
}

func (m *Monitor) process(ctx context.Context, order *models.PendingOrder) {
	age := order.Age(m.now())
	decision := m.policy.Decide(age, order.NotificationStage)

	switch decision.Action {
	case ActionDelete:
		if err := m.reaper.Reap(ctx, order, m.track); err != nil {
			m.logger.Error("Failed to delete expired order, will retry next cycle",
				"error", err,
				"track", m.track,
				"orderNumber", order.OrderNumber)
		}

	case ActionNotify:
		advanced, err := m.stages.AdvanceNotificationStage(ctx, order.ID, decision.Stage)

		if err != nil {
			m.logger.Error("Failed to advance notification stage, will retry next cycle",
				"error", err,
				"track", m.track,
				"orderNumber", order.OrderNumber,
				"stage", decision.Stage)
			return
		}

		// Another cycle already claimed this stage; sending again would
		// duplicate the notification.
		if !advanced {
			m.logger.Debug("Stage already advanced, skipping notification",
				"track", m.track,
				"orderNumber", order.OrderNumber,
				"stage", decision.Stage)
			return
		}

		m.notifier.DispatchStage(ctx, order, m.track, decision.Stage)
		m.events.ReminderSent(ctx, order, m.track, decision.Stage)

		if remaining, ok := order.GraceRemaining(m.now()); ok {
			m.logger.Info("Reminder dispatched inside payment window",
				"track", m.track,
				"orderNumber", order.OrderNumber,
				"stage", decision.Stage,
				"remaining", remaining)
		}

	case ActionNone:
		m.logger.Debug("No action required",
			"track", m.track,
			"orderNumber", order.OrderNumber,
			"age", age,
			"stage", order.NotificationStage)
	}
}
