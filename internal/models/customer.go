package models

import (
	"strings"
)

// Customer is a row from either customer table (crm_customers or customers);
// both share the same contact columns
type Customer struct {
	ID        int64  `db:"id" json:"id"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`
}

// FullName returns the customer's display name, empty when neither name part
// is set
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
