package models

import (
	"time"
)

// OrderManagement is the 1:1 companion record tracking an order's workflow
// state. Grace-period orders carry the computed end of their payment window.
type OrderManagement struct {
	ID                    int64      `db:"id" json:"id"`
	CustomerOrderID       int64      `db:"customer_order_id" json:"customer_order_id"`
	CurrentStatus         string     `db:"current_status" json:"current_status"`
	PaymentGracePeriodEnd *time.Time `db:"payment_grace_period_end" json:"payment_grace_period_end,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}
