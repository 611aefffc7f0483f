package moneyledger

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Repository defines the storage contract for the money ledger.
// Mutating methods require an active transaction.
type Repository interface {
	// GetAccountBalanceForUpdate reads account balance under a row lock.
	// Returns NotFound if the account does not exist.
	GetAccountBalanceForUpdate(ctx context.Context, accountID id.ID) (types.Money, error)

	// SetAccountBalance writes the new balance for a previously locked account.
	SetAccountBalance(ctx context.Context, accountID id.ID, balance types.Money) error

	// InsertCashFlow appends one cash-flow entry.
	InsertCashFlow(ctx context.Context, e *CashFlowEntry) error

	// GetCustomerForUpdate reads balance fields under a row lock.
	GetCustomerForUpdate(ctx context.Context, customerID id.ID) (CustomerBalance, error)

	// UpdateCustomerBalance writes balance and aggregate for a previously
	// locked customer.
	UpdateCustomerBalance(ctx context.Context, customerID id.ID, balance, totalPurchases types.Money) error

	// InsertJournalEntry appends one journal row.
	InsertJournalEntry(ctx context.Context, e *JournalEntry) error

	// InsertPayment appends one payment row.
	InsertPayment(ctx context.Context, p *Payment) error

	// CashFlows returns entries for reporting reads.
	CashFlows(ctx context.Context, filter CashFlowFilter) ([]CashFlowEntry, error)

	// JournalByCustomer returns a customer's journal history.
	JournalByCustomer(ctx context.Context, customerID id.ID, limit, offset int) ([]JournalEntry, error)
}

// CashFlowFilter for cash-flow queries.
type CashFlowFilter struct {
	Type      *FlowType
	AccountID *id.ID
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}
