// Package account provides the Account catalog (cash and bank accounts).
// Account.balance is owned by the money ledger: it changes only alongside a
// cash-flow entry in the same transaction.
package account

import (
	"context"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/types"
)

// Type of the account.
type Type string

const (
	TypeCash Type = "cash"
	TypeBank Type = "bank"
)

// Account represents a money holding account with a running balance.
type Account struct {
	entity.Catalog

	Type Type `db:"type" json:"type"`

	// Balance is the running total; mutated only by the money ledger.
	Balance types.Money `db:"balance" json:"balance"`

	BankName      *string `db:"bank_name" json:"bankName,omitempty"`
	AccountNumber *string `db:"account_number" json:"accountNumber,omitempty"`

	IsDefault bool `db:"is_default" json:"isDefault"`
}

// NewAccount creates an account with required fields.
func NewAccount(code, name string, accType Type) *Account {
	return &Account{
		Catalog: entity.NewCatalog(code, name),
		Type:    accType,
	}
}

// Validate implements entity.Validatable.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	if a.Type != TypeCash && a.Type != TypeBank {
		return apperror.NewValidation("invalid account type").
			WithDetail("field", "type").
			WithDetail("value", string(a.Type))
	}

	if a.Type == TypeBank && (a.AccountNumber == nil || *a.AccountNumber == "") {
		return apperror.NewValidation("account number is required for bank accounts").
			WithDetail("field", "accountNumber")
	}

	return nil
}
