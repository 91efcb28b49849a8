package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopops/payment-reaper/internal/database"
	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// CustomerRepository looks up contact details across the two customer
// tables. CRM customers and plain storefront customers share the same
// contact columns.
type CustomerRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *database.Database, logger logger.Logger) *CustomerRepository {
	return &CustomerRepository{
		db:     db,
		logger: logger,
	}
}

// GetCRMCustomerByID retrieves a customer from the CRM table
func (r *CustomerRepository) GetCRMCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getByID(ctx, "crm_customers", id)
}

// GetCustomerByID retrieves a customer from the plain customer table
func (r *CustomerRepository) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getByID(ctx, "customers", id)
}

func (r *CustomerRepository) getByID(ctx context.Context, table string, id int64) (*models.Customer, error) {
	query := fmt.Sprintf(`
		SELECT id, first_name, last_name, email, phone
		FROM %s
		WHERE id = $1
	`, table)

	var customer models.Customer
	err := r.db.DB.GetContext(ctx, &customer, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get customer", "error", err, "table", table, "customerID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &customer, nil
}
