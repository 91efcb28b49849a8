package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/shopops/payment-reaper/internal/config"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations creates the tables the engine reads and writes. The order
// and customer tables are owned by the storefront; creating them here keeps
// a standalone deployment usable.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customer_orders (
		id BIGSERIAL PRIMARY KEY,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		customer_id BIGINT,
		guest_email VARCHAR(255),
		guest_name VARCHAR(255),
		total_amount DECIMAL(12, 2) NOT NULL,
		currency VARCHAR(10) NOT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(30) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(50) NOT NULL,
		notification_stage INT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_customer_orders_status ON customer_orders(status, payment_status);
	CREATE INDEX IF NOT EXISTS idx_customer_orders_payment_method ON customer_orders(payment_method);

	CREATE TABLE IF NOT EXISTS order_management (
		id BIGSERIAL PRIMARY KEY,
		customer_order_id BIGINT NOT NULL UNIQUE REFERENCES customer_orders(id),
		current_status VARCHAR(30) NOT NULL DEFAULT 'pending',
		payment_grace_period_end TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES customer_orders(id),
		product_id BIGINT,
		quantity DECIMAL(12, 3) NOT NULL,
		unit_price DECIMAL(12, 2) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS payment_receipts (
		id BIGSERIAL PRIMARY KEY,
		customer_order_id BIGINT NOT NULL REFERENCES customer_orders(id),
		receipt_url TEXT,
		uploaded_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_payment_receipts_order_id ON payment_receipts(customer_order_id);

	CREATE TABLE IF NOT EXISTS crm_customers (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50) NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS notification_templates (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		subject TEXT NOT NULL,
		body_html TEXT NOT NULL,
		body_text TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`

	_, err := d.DB.Exec(schema)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := d.seedTemplates(); err != nil {
		return fmt.Errorf("failed to seed notification templates: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// seedTemplates inserts the default notification templates without touching
// rows an operator has already customized.
func (d *Database) seedTemplates() error {
	type seed struct {
		name    string
		subject string
		html    string
		text    string
	}

	seeds := []seed{
		{
			name:    "incomplete_payment_first_reminder",
			subject: "Order {{ORDER_NUMBER}} - payment incomplete",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>The payment of {{AMOUNT}} {{CURRENCY}} for order {{ORDER_NUMBER}} is still incomplete. Please complete it as soon as possible.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, the payment of {{AMOUNT}} {{CURRENCY}} for order {{ORDER_NUMBER}} is still incomplete. Please complete it as soon as possible.",
		},
		{
			name:    "incomplete_payment_final_warning",
			subject: "Final warning - order {{ORDER_NUMBER}}",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>This is your last chance to complete the payment of {{AMOUNT}} {{CURRENCY}} for order {{ORDER_NUMBER}}. The order will be deleted if the payment is not completed.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, this is your last chance to complete the payment of {{AMOUNT}} {{CURRENCY}} for order {{ORDER_NUMBER}}. The order will be deleted if the payment is not completed.",
		},
		{
			name:    "incomplete_payment_deleted",
			subject: "Order {{ORDER_NUMBER}} has been deleted",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>Unfortunately order {{ORDER_NUMBER}} was deleted because the payment was not completed in time. Please contact us to order again.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, unfortunately order {{ORDER_NUMBER}} was deleted because the payment was not completed in time. Please contact us to order again.",
		},
		{
			name:    "grace_period_first_reminder",
			subject: "Order {{ORDER_NUMBER}} - bank transfer pending",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>Order {{ORDER_NUMBER}} for {{AMOUNT}} {{CURRENCY}} is awaiting your bank transfer. Please upload the transfer receipt within the 3-day window.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, order {{ORDER_NUMBER}} for {{AMOUNT}} {{CURRENCY}} is awaiting your bank transfer. Please upload the transfer receipt within the 3-day window.",
		},
		{
			name:    "grace_period_second_reminder",
			subject: "Reminder - 48 hours left for order {{ORDER_NUMBER}}",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>48 hours remain to upload the bank transfer receipt for order {{ORDER_NUMBER}} ({{AMOUNT}} {{CURRENCY}}).</p>",
			text:    "Dear {{CUSTOMER_NAME}}, 48 hours remain to upload the bank transfer receipt for order {{ORDER_NUMBER}} ({{AMOUNT}} {{CURRENCY}}).",
		},
		{
			name:    "grace_period_final_warning",
			subject: "Final warning - 24 hours left for order {{ORDER_NUMBER}}",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>Only 24 hours remain to upload the bank transfer receipt for order {{ORDER_NUMBER}} ({{AMOUNT}} {{CURRENCY}}). The order will be deleted afterwards.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, only 24 hours remain to upload the bank transfer receipt for order {{ORDER_NUMBER}} ({{AMOUNT}} {{CURRENCY}}). The order will be deleted afterwards.",
		},
		{
			name:    "grace_period_expired",
			subject: "Order {{ORDER_NUMBER}} cancelled - payment window expired",
			html:    "<p>Dear {{CUSTOMER_NAME}},</p><p>Order {{ORDER_NUMBER}} was cancelled because the 3-day payment window expired without a transfer receipt. Please contact us to order again.</p>",
			text:    "Dear {{CUSTOMER_NAME}}, order {{ORDER_NUMBER}} was cancelled because the 3-day payment window expired without a transfer receipt. Please contact us to order again.",
		},
	}

	query := `
		INSERT INTO notification_templates (name, subject, body_html, body_text)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`

	for _, s := range seeds {
		if _, err := d.DB.Exec(query, s.name, s.subject, s.html, s.text); err != nil {
			return err
		}
	}

	return nil
}
