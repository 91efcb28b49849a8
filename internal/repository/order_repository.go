package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopops/payment-reaper/internal/database"
	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// FindIncompleteOnlineOrders returns online-payment orders still awaiting
// payment: order and payment status pending, companion management record
// pending.
func (r *OrderRepository) FindIncompleteOnlineOrders(ctx context.Context) ([]*models.PendingOrder, error) {
	query := `
		SELECT co.id, co.order_number, co.customer_id, co.guest_email, co.guest_name,
		       co.total_amount, co.currency, co.created_at, co.notification_stage,
		       om.id AS management_id, om.payment_grace_period_end AS grace_period_end
		FROM customer_orders co
		JOIN order_management om ON om.customer_order_id = co.id
		WHERE co.status = $1
		  AND co.payment_status = $2
		  AND co.payment_method = $3
		  AND om.current_status = $4
		ORDER BY co.created_at ASC
	`

	var orders []*models.PendingOrder
	err := r.db.DB.SelectContext(
		ctx,
		&orders,
		query,
		models.OrderStatusPending,
		models.PaymentStatusPending,
		models.PaymentMethodOnline,
		models.ManagementStatusPending,
	)

	if err != nil {
		r.logger.Error("Failed to query incomplete online-payment orders", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// FindGracePeriodOrders returns bank-transfer orders inside their 3-day
// window. The management record is optional for this track.
func (r *OrderRepository) FindGracePeriodOrders(ctx context.Context) ([]*models.PendingOrder, error) {
	query := `
		SELECT co.id, co.order_number, co.customer_id, co.guest_email, co.guest_name,
		       co.total_amount, co.currency, co.created_at, co.notification_stage,
		       om.id AS management_id, om.payment_grace_period_end AS grace_period_end
		FROM customer_orders co
		LEFT JOIN order_management om ON om.customer_order_id = co.id
		WHERE co.payment_method = $1
		  AND co.status IN ($2, $3)
		  AND co.payment_status IN ($4, $5)
		  AND (om.id IS NULL OR om.current_status IN ($6, $7))
		ORDER BY co.created_at ASC
	`

	var orders []*models.PendingOrder
	err := r.db.DB.SelectContext(
		ctx,
		&orders,
		query,
		models.PaymentMethodBankTransferGrace,
		models.OrderStatusPending,
		models.OrderStatusAwaitingPayment,
		models.PaymentStatusPending,
		models.PaymentStatusGracePeriod,
		models.ManagementStatusPending,
		models.ManagementStatusPaymentPending,
	)

	if err != nil {
		r.logger.Error("Failed to query grace-period orders", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}

// AdvanceNotificationStage moves an order's notification stage forward. The
// update is conditional on the stored stage being lower, so the stage never
// decreases and concurrent cycles cannot both win the same stage. Returns
// false when another cycle already advanced it.
func (r *OrderRepository) AdvanceNotificationStage(ctx context.Context, orderID int64, stage int) (bool, error) {
	query := `
		UPDATE customer_orders
		SET notification_stage = $1, updated_at = NOW()
		WHERE id = $2 AND notification_stage < $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, stage, orderID)

	if err != nil {
		r.logger.Error("Failed to advance notification stage", "error", err, "orderID", orderID, "stage", stage)
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return rowsAffected > 0, nil
}

// DeleteOrderCascade removes an order and every dependent row inside one
// transaction: management record, line items, payment receipts, then the
// order itself. Any failure rolls the whole deletion back so the order stays
// eligible for the next cycle.
func (r *OrderRepository) DeleteOrderCascade(ctx context.Context, orderID int64) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)

	if err != nil {
		r.logger.Error("Failed to begin deletion transaction", "error", err, "orderID", orderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	steps := []struct {
		name  string
		query string
	}{
		{"order_management", `DELETE FROM order_management WHERE customer_order_id = $1`},
		{"order_items", `DELETE FROM order_items WHERE order_id = $1`},
		{"payment_receipts", `DELETE FROM payment_receipts WHERE customer_order_id = $1`},
		{"customer_orders", `DELETE FROM customer_orders WHERE id = $1`},
	}

	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, orderID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to roll back deletion transaction", "error", rbErr, "orderID", orderID)
			}
			r.logger.Error("Failed to delete dependent rows, rolled back",
				"error", err,
				"orderID", orderID,
				"table", step.name)
			return fmt.Errorf("%w: delete from %s: %v", ErrDatabase, step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit deletion transaction", "error", err, "orderID", orderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
