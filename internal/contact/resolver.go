package contact

import (
	"context"
	"errors"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/internal/repository"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// CustomerStore provides customer lookups across the two backing tables
type CustomerStore interface {
	GetCRMCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
}

// Resolver resolves an order's notification target. Guest-supplied fields on
// the order win; otherwise the customer reference is looked up in the CRM
// table first, then the plain customer table. Every result is nullable and
// consumers treat nil/empty as "channel unavailable", never as an error.
type Resolver struct {
	customers CustomerStore
	logger    logger.Logger
}

// NewResolver creates a new Resolver
func NewResolver(customers CustomerStore, logger logger.Logger) *Resolver {
	return &Resolver{
		customers: customers,
		logger:    logger,
	}
}

// Email returns the order's notification email address, or nil when none is
// resolvable
func (r *Resolver) Email(ctx context.Context, order *models.PendingOrder) *string {
	if order.GuestEmail != nil && *order.GuestEmail != "" {
		return order.GuestEmail
	}

	customer := r.lookup(ctx, order.CustomerID)

	if customer == nil || customer.Email == "" {
		return nil
	}

	return &customer.Email
}

// Phone returns the order's notification phone number, or nil when none is
// resolvable
func (r *Resolver) Phone(ctx context.Context, order *models.PendingOrder) *string {
	customer := r.lookup(ctx, order.CustomerID)

	if customer == nil || customer.Phone == "" {
		return nil
	}

	return &customer.Phone
}

// Name returns the customer's display name, or "" when none is resolvable
func (r *Resolver) Name(ctx context.Context, order *models.PendingOrder) string {
	if order.GuestName != nil && *order.GuestName != "" {
		return *order.GuestName
	}

	customer := r.lookup(ctx, order.CustomerID)

	if customer == nil {
		return ""
	}

	return customer.FullName()
}

// lookup checks the CRM table first and falls back to the plain customer
// table. Lookup failures degrade to "not found" so a broken customer row
// never blocks stage bookkeeping.
func (r *Resolver) lookup(ctx context.Context, customerID *int64) *models.Customer {
	if customerID == nil {
		return nil
	}

	customer, err := r.customers.GetCRMCustomerByID(ctx, *customerID)

	if err == nil {
		return customer
	}

	if !errors.Is(err, repository.ErrNotFound) {
		r.logger.Warn("CRM customer lookup failed", "error", err, "customerID", *customerID)
	}

	customer, err = r.customers.GetCustomerByID(ctx, *customerID)

	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("Customer lookup failed", "error", err, "customerID", *customerID)
		}
		return nil
	}

	return customer
}
