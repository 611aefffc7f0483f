// Package moneyledger owns the money balances: Customer.current_balance,
// Account.balance, cash-flow entries, payments, and journal rows. Every
// balance change is paired with a durable record explaining it, written in
// the same transaction.
package moneyledger

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// FlowType classifies a cash-flow entry.
type FlowType string

const (
	FlowInflow  FlowType = "inflow"
	FlowOutflow FlowType = "outflow"
)

// CashFlowEntry records one movement of money through an account.
type CashFlowEntry struct {
	ID        id.ID       `db:"id" json:"id"`
	Type      FlowType    `db:"type" json:"type"`
	Amount    types.Money `db:"amount" json:"amount"`
	AccountID *id.ID      `db:"account_id" json:"accountId,omitempty"`
	Category  string      `db:"category" json:"category,omitempty"`
	Reference string      `db:"reference" json:"reference,omitempty"`
	Notes     string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy string      `db:"created_by" json:"createdBy,omitempty"`
}

// JournalEntry is a generic transaction row pairing a customer balance
// change with its cause.
type JournalEntry struct {
	ID         id.ID       `db:"id" json:"id"`
	Number     string      `db:"number" json:"number"`
	CustomerID *id.ID      `db:"customer_id" json:"customerId,omitempty"`
	Amount     types.Money `db:"amount" json:"amount"` // signed
	Label      string      `db:"label" json:"label"`
	Reference  string      `db:"reference" json:"reference,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy  string      `db:"created_by" json:"createdBy,omitempty"`
}

// PaymentMethod for customer payments.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodTransfer PaymentMethod = "transfer"
)

// Payment records money received from a customer against their balance.
type Payment struct {
	ID         id.ID         `db:"id" json:"id"`
	Number     string        `db:"number" json:"number"`
	CustomerID id.ID         `db:"customer_id" json:"customerId"`
	Amount     types.Money   `db:"amount" json:"amount"`
	Method     PaymentMethod `db:"method" json:"method"`
	AccountID  *id.ID        `db:"account_id" json:"accountId,omitempty"`
	Reference  string        `db:"reference" json:"reference,omitempty"`
	Notes      string        `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	CreatedBy  string        `db:"created_by" json:"createdBy,omitempty"`
}

// CustomerBalance is the locked read used for balance adjustments.
type CustomerBalance struct {
	CustomerID     id.ID       `db:"id"`
	CurrentBalance types.Money `db:"current_balance"`
	CreditLimit    types.Money `db:"credit_limit"`
	TotalPurchases types.Money `db:"total_purchases"`
}
