// Package customer provides the Customer catalog.
// Customer.current_balance is owned by the money ledger: every change is
// paired with a payment, journal, or sale row in the same transaction.
package customer

import (
	"context"
	"regexp"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/types"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Customer represents a buyer with an optional credit account.
type Customer struct {
	entity.Catalog

	Phone *string `db:"phone" json:"phone,omitempty"`
	Email *string `db:"email" json:"email,omitempty"`

	Address *string `db:"address" json:"address,omitempty"`

	// CurrentBalance is the outstanding credit amount; mutated only by the
	// money ledger.
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`

	// CreditLimit is the maximum balance the customer may owe.
	CreditLimit types.Money `db:"credit_limit" json:"creditLimit"`

	// TotalPurchases is a lifetime aggregate, maintained by sale operations.
	TotalPurchases types.Money `db:"total_purchases" json:"totalPurchases"`
}

// NewCustomer creates a customer with required fields.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit must not be negative").
			WithDetail("field", "creditLimit")
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}

// AvailableCredit returns the remaining credit headroom.
func (c *Customer) AvailableCredit() types.Money {
	return c.CreditLimit.Sub(c.CurrentBalance)
}
