package escalation

import (
	"time"

	"github.com/shopops/payment-reaper/internal/models"
)

// Action is what a cycle must do with an order
type Action int

const (
	ActionNone Action = iota
	ActionNotify
	ActionDelete
)

// Decision pairs an action with the stage it targets. For ActionNotify the
// stage is the reminder to send; for ActionDelete it is the track's terminal
// stage.
type Decision struct {
	Action Action
	Stage  int
}

// Threshold is one rung of a track's escalation ladder: once an order's age
// reaches MinAge and its stage is still below BelowStage, the action fires.
type Threshold struct {
	MinAge     time.Duration
	BelowStage int
	Action     Action
	Stage      int
}

// Policy is the pure decision logic for one track. Thresholds are ordered
// longest age first so only the highest applicable rung fires per cycle and
// the terminal action takes precedence.
type Policy struct {
	Track      models.Track
	Thresholds []Threshold
}

// Decide maps (order age, current stage) to the required action. Only the
// highest applicable rung fires, so a stale order jumps straight to it;
// stages never regress, and an order at or past every rung gets ActionNone.
func (p *Policy) Decide(age time.Duration, currentStage int) Decision {
	for _, t := range p.Thresholds {
		if age >= t.MinAge && currentStage < t.BelowStage {
			return Decision{Action: t.Action, Stage: t.Stage}
		}
	}

	return Decision{Action: ActionNone}
}

// OnlinePaymentPolicy builds the online-payment track policy: first reminder,
// final warning, then deletion at the terminal threshold.
func OnlinePaymentPolicy(firstReminder, finalReminder, deleteAfter time.Duration) *Policy {
	return &Policy{
		Track: models.TrackOnlinePayment,
		Thresholds: []Threshold{
			{MinAge: deleteAfter, BelowStage: models.OnlineTerminalStage, Action: ActionDelete, Stage: models.OnlineTerminalStage},
			{MinAge: finalReminder, BelowStage: 2, Action: ActionNotify, Stage: 2},
			{MinAge: firstReminder, BelowStage: 1, Action: ActionNotify, Stage: 1},
		},
	}
}

// GracePeriodPolicy builds the grace-period track policy: three staged
// reminders across the 3-day window, then deletion.
func GracePeriodPolicy(firstReminder, secondReminder, finalReminder, deleteAfter time.Duration) *Policy {
	return &Policy{
		Track: models.TrackGracePeriod,
		Thresholds: []Threshold{
			{MinAge: deleteAfter, BelowStage: models.GraceTerminalStage, Action: ActionDelete, Stage: models.GraceTerminalStage},
			{MinAge: finalReminder, BelowStage: 3, Action: ActionNotify, Stage: 3},
			{MinAge: secondReminder, BelowStage: 2, Action: ActionNotify, Stage: 2},
			{MinAge: firstReminder, BelowStage: 1, Action: ActionNotify, Stage: 1},
		},
	}
}
