package moneyledger

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/appctx"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/pkg/logger"
)

// Service is the single entry point for money balance mutation.
// Like the stock ledger, it runs inside the caller's transaction and pairs
// every balance write with its explaining record.
type Service struct {
	repo Repository
}

// NewService creates a new money ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// journalNumber builds a timestamp-based display number for journal rows.
// These only need to be unique enough for display, not for identity; the
// row ID is the identity.
func journalNumber(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, time.Now().UTC().Format("20060102150405.000"))
}

// PostCashFlow records a cash movement. When an account is given, its
// balance is adjusted under a row lock in the same transaction as the entry
// insert: inflows add, outflows subtract.
func (s *Service) PostCashFlow(ctx context.Context, flow *CashFlowEntry) error {
	if flow.Type != FlowInflow && flow.Type != FlowOutflow {
		return apperror.NewValidation("invalid cash flow type").
			WithDetail("field", "type").
			WithDetail("value", string(flow.Type))
	}
	if !flow.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}

	if flow.AccountID != nil {
		balance, err := s.repo.GetAccountBalanceForUpdate(ctx, *flow.AccountID)
		if err != nil {
			return err
		}

		if flow.Type == FlowInflow {
			balance = balance.Add(flow.Amount)
		} else {
			balance = balance.Sub(flow.Amount)
		}

		if err := s.repo.SetAccountBalance(ctx, *flow.AccountID, balance); err != nil {
			return fmt.Errorf("set account balance: %w", err)
		}
	}

	if id.IsNil(flow.ID) {
		flow.ID = id.New()
	}
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = time.Now().UTC()
	}
	if flow.CreatedBy == "" {
		flow.CreatedBy = appctx.GetUserID(ctx)
	}

	if err := s.repo.InsertCashFlow(ctx, flow); err != nil {
		return fmt.Errorf("insert cash flow: %w", err)
	}

	logger.Debug(ctx, "cash flow posted",
		"type", flow.Type,
		"amount", flow.Amount,
		"reference", flow.Reference,
	)

	return nil
}

// BalanceChange describes a customer balance adjustment.
type BalanceChange struct {
	CustomerID id.ID
	// Delta is the signed balance change; positive deltas extend credit.
	Delta     types.Money
	Label     string
	Reference string
	// NumberPrefix for the paired journal row (ADJ, CREDIT, PAYMENT).
	NumberPrefix string
	// AddToPurchases also raises the lifetime purchases aggregate by Delta.
	AddToPurchases bool
	// SkipJournal suppresses the journal row when the caller's own document
	// (the sale row itself) is the paired record.
	SkipJournal bool
}

// AdjustCustomerBalance applies a signed delta to a customer balance under
// a row lock. Credit increases are refused when the resulting balance would
// exceed the credit limit; the whole transaction aborts, so no partial
// balance write survives.
func (s *Service) AdjustCustomerBalance(ctx context.Context, change BalanceChange) (types.Money, error) {
	if id.IsNil(change.CustomerID) {
		return types.ZeroMoney(), apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if change.Delta.IsZero() {
		return types.ZeroMoney(), apperror.NewValidation("amount must not be zero").
			WithDetail("field", "delta")
	}

	cb, err := s.repo.GetCustomerForUpdate(ctx, change.CustomerID)
	if err != nil {
		return types.ZeroMoney(), err
	}

	newBalance := cb.CurrentBalance.Add(change.Delta)

	if change.Delta.IsPositive() && cb.CreditLimit.IsPositive() && newBalance.GreaterThan(cb.CreditLimit) {
		return types.ZeroMoney(), apperror.NewCreditLimitExceeded(
			change.CustomerID.String(),
			cb.CurrentBalance.String(),
			cb.CreditLimit.String(),
			change.Delta.String(),
		)
	}

	totalPurchases := cb.TotalPurchases
	if change.AddToPurchases {
		totalPurchases = totalPurchases.Add(change.Delta)
	}

	if err := s.repo.UpdateCustomerBalance(ctx, change.CustomerID, newBalance, totalPurchases); err != nil {
		return types.ZeroMoney(), fmt.Errorf("update customer balance: %w", err)
	}

	if !change.SkipJournal {
		prefix := change.NumberPrefix
		if prefix == "" {
			prefix = "ADJ"
		}
		entry := &JournalEntry{
			ID:         id.New(),
			Number:     journalNumber(prefix),
			CustomerID: &change.CustomerID,
			Amount:     change.Delta,
			Label:      change.Label,
			Reference:  change.Reference,
			CreatedAt:  time.Now().UTC(),
			CreatedBy:  appctx.GetUserID(ctx),
		}
		if err := s.repo.InsertJournalEntry(ctx, entry); err != nil {
			return types.ZeroMoney(), fmt.Errorf("insert journal entry: %w", err)
		}
	}

	logger.Debug(ctx, "customer balance adjusted",
		"customer_id", change.CustomerID,
		"delta", change.Delta,
		"balance", newBalance,
	)

	return newBalance, nil
}

// RecordPayment registers money received from a customer: a payment row,
// a balance decrease, and (when an account is given) a cash inflow, all in
// one transaction.
func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	if id.IsNil(p.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount")
	}
	if p.Method != MethodCash && p.Method != MethodTransfer {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "method").
			WithDetail("value", string(p.Method))
	}

	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if p.Number == "" {
		p.Number = journalNumber("PAYMENT")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.CreatedBy == "" {
		p.CreatedBy = appctx.GetUserID(ctx)
	}

	cb, err := s.repo.GetCustomerForUpdate(ctx, p.CustomerID)
	if err != nil {
		return err
	}

	if cb.CurrentBalance.LessThan(p.Amount) {
		return apperror.NewInsufficientBalance("payment exceeds outstanding balance").
			WithDetail("customer_id", p.CustomerID.String()).
			WithDetail("balance", cb.CurrentBalance.String()).
			WithDetail("amount", p.Amount.String())
	}

	newBalance := cb.CurrentBalance.Sub(p.Amount)
	if err := s.repo.UpdateCustomerBalance(ctx, p.CustomerID, newBalance, cb.TotalPurchases); err != nil {
		return fmt.Errorf("update customer balance: %w", err)
	}

	if err := s.repo.InsertPayment(ctx, p); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if p.AccountID != nil {
		flow := &CashFlowEntry{
			Type:      FlowInflow,
			Amount:    p.Amount,
			AccountID: p.AccountID,
			Category:  "customer_payment",
			Reference: p.Number,
		}
		if err := s.PostCashFlow(ctx, flow); err != nil {
			return err
		}
	}

	logger.Info(ctx, "payment recorded",
		"payment_number", p.Number,
		"customer_id", p.CustomerID,
		"amount", p.Amount,
	)

	return nil
}

// CashFlows returns entries for reporting reads.
func (s *Service) CashFlows(ctx context.Context, filter CashFlowFilter) ([]CashFlowEntry, error) {
	return s.repo.CashFlows(ctx, filter)
}

// JournalByCustomer returns a customer's journal history.
func (s *Service) JournalByCustomer(ctx context.Context, customerID id.ID, limit, offset int) ([]JournalEntry, error) {
	return s.repo.JournalByCustomer(ctx, customerID, limit, offset)
}
