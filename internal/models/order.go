package models

import (
	"time"
)

// Track identifies one of the two escalation paths an unpaid order can be on
type Track string

const (
	TrackOnlinePayment Track = "online_payment"
	TrackGracePeriod   Track = "grace_period"
)

// Payment method tags as stored on customer_orders
const (
	PaymentMethodOnline            = "online_payment"
	PaymentMethodBankTransferGrace = "bank_transfer_grace"
)

// Order statuses relevant to the escalation engine
const (
	OrderStatusPending         = "pending"
	OrderStatusAwaitingPayment = "awaiting_payment"
)

// Payment statuses relevant to the escalation engine
const (
	PaymentStatusPending     = "pending"
	PaymentStatusGracePeriod = "grace_period"
)

// Management statuses relevant to the escalation engine
const (
	ManagementStatusPending        = "pending"
	ManagementStatusPaymentPending = "payment_pending"
)

// Notification stage checkpoints. The stage persisted on an order never
// decreases; it is the idempotency guard against duplicate notifications
// across cycles and restarts.
const (
	OnlineTerminalStage = 3
	GraceTerminalStage  = 4
)

// Order represents a customer order row
type Order struct {
	ID                int64     `db:"id" json:"id"`
	OrderNumber       string    `db:"order_number" json:"order_number"`
	CustomerID        *int64    `db:"customer_id" json:"customer_id,omitempty"`
	GuestEmail        *string   `db:"guest_email" json:"guest_email,omitempty"`
	GuestName         *string   `db:"guest_name" json:"guest_name,omitempty"`
	TotalAmount       float64   `db:"total_amount" json:"total_amount"`
	Currency          string    `db:"currency" json:"currency"`
	Status            string    `db:"status" json:"status"`
	PaymentStatus     string    `db:"payment_status" json:"payment_status"`
	PaymentMethod     string    `db:"payment_method" json:"payment_method"`
	NotificationStage int       `db:"notification_stage" json:"notification_stage"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// PendingOrder is the candidate row returned by the eligibility queries: the
// order columns the engine acts on plus the joined management record fields
type PendingOrder struct {
	ID                int64      `db:"id"`
	OrderNumber       string     `db:"order_number"`
	CustomerID        *int64     `db:"customer_id"`
	GuestEmail        *string    `db:"guest_email"`
	GuestName         *string    `db:"guest_name"`
	TotalAmount       float64    `db:"total_amount"`
	Currency          string     `db:"currency"`
	CreatedAt         time.Time  `db:"created_at"`
	NotificationStage int        `db:"notification_stage"`
	ManagementID      *int64     `db:"management_id"`
	GracePeriodEnd    *time.Time `db:"grace_period_end"`
}

// Age returns how long the order has been unpaid as of now
func (o *PendingOrder) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// GraceRemaining returns how much of the payment window is left, negative
// once the window has passed. ok is false when the order carries no grace
// deadline.
func (o *PendingOrder) GraceRemaining(now time.Time) (time.Duration, bool) {
	if o.GracePeriodEnd == nil {
		return 0, false
	}

	return o.GracePeriodEnd.Sub(now), true
}
