package moneyledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

type fakeMoneyRepo struct {
	accounts  map[id.ID]types.Money
	customers map[id.ID]CustomerBalance

	cashFlows []CashFlowEntry
	journal   []JournalEntry
	payments  []Payment
}

func newFakeMoneyRepo() *fakeMoneyRepo {
	return &fakeMoneyRepo{
		accounts:  make(map[id.ID]types.Money),
		customers: make(map[id.ID]CustomerBalance),
	}
}

func (r *fakeMoneyRepo) GetAccountBalanceForUpdate(_ context.Context, accountID id.ID) (types.Money, error) {
	balance, ok := r.accounts[accountID]
	if !ok {
		return types.ZeroMoney(), apperror.NewNotFound("account", accountID)
	}
	return balance, nil
}

func (r *fakeMoneyRepo) SetAccountBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	r.accounts[accountID] = balance
	return nil
}

func (r *fakeMoneyRepo) InsertCashFlow(_ context.Context, e *CashFlowEntry) error {
	r.cashFlows = append(r.cashFlows, *e)
	return nil
}

func (r *fakeMoneyRepo) GetCustomerForUpdate(_ context.Context, customerID id.ID) (CustomerBalance, error) {
	cb, ok := r.customers[customerID]
	if !ok {
		return CustomerBalance{}, apperror.NewNotFound("customer", customerID)
	}
	return cb, nil
}

func (r *fakeMoneyRepo) UpdateCustomerBalance(_ context.Context, customerID id.ID, balance, totalPurchases types.Money) error {
	cb := r.customers[customerID]
	cb.CurrentBalance = balance
	cb.TotalPurchases = totalPurchases
	r.customers[customerID] = cb
	return nil
}

func (r *fakeMoneyRepo) InsertJournalEntry(_ context.Context, e *JournalEntry) error {
	r.journal = append(r.journal, *e)
	return nil
}

func (r *fakeMoneyRepo) InsertPayment(_ context.Context, p *Payment) error {
	r.payments = append(r.payments, *p)
	return nil
}

func (r *fakeMoneyRepo) CashFlows(_ context.Context, _ CashFlowFilter) ([]CashFlowEntry, error) {
	return r.cashFlows, nil
}

func (r *fakeMoneyRepo) JournalByCustomer(_ context.Context, customerID id.ID, _, _ int) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range r.journal {
		if e.CustomerID != nil && *e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestPostCashFlow_AdjustsAccountBalance(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	accountID := id.New()
	repo.accounts[accountID] = types.NewMoney(100)

	err := svc.PostCashFlow(context.Background(), &CashFlowEntry{
		Type:      FlowOutflow,
		Amount:    types.NewMoney(30),
		AccountID: &accountID,
		Category:  "rent",
	})
	require.NoError(t, err)

	assert.True(t, repo.accounts[accountID].Equal(types.NewMoney(70)))
	require.Len(t, repo.cashFlows, 1)
	assert.False(t, id.IsNil(repo.cashFlows[0].ID))
}

func TestPostCashFlow_Validation(t *testing.T) {
	svc := NewService(newFakeMoneyRepo())

	err := svc.PostCashFlow(context.Background(), &CashFlowEntry{
		Type:   FlowType("sideways"),
		Amount: types.NewMoney(10),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	err = svc.PostCashFlow(context.Background(), &CashFlowEntry{
		Type:   FlowInflow,
		Amount: types.NewMoney(-5),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestAdjustCustomerBalance_WritesJournalRow(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{
		CurrentBalance: types.NewMoney(50),
		CreditLimit:    types.NewMoney(200),
	}

	balance, err := svc.AdjustCustomerBalance(context.Background(), BalanceChange{
		CustomerID:   customerID,
		Delta:        types.NewMoney(25),
		Label:        "manual correction",
		NumberPrefix: "ADJ",
	})
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewMoney(75)))

	require.Len(t, repo.journal, 1)
	assert.Contains(t, repo.journal[0].Number, "ADJ-")
	assert.True(t, repo.journal[0].Amount.Equal(types.NewMoney(25)))
}

func TestAdjustCustomerBalance_CreditLimit(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{
		CurrentBalance: types.NewMoney(180),
		CreditLimit:    types.NewMoney(200),
	}

	_, err := svc.AdjustCustomerBalance(context.Background(), BalanceChange{
		CustomerID: customerID,
		Delta:      types.NewMoney(50),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCreditLimitExceeded))

	// balance untouched, no journal row
	assert.True(t, repo.customers[customerID].CurrentBalance.Equal(types.NewMoney(180)))
	assert.Empty(t, repo.journal)
}

func TestAdjustCustomerBalance_ZeroCreditLimitMeansUnlimited(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{
		CurrentBalance: types.NewMoney(1000),
	}

	balance, err := svc.AdjustCustomerBalance(context.Background(), BalanceChange{
		CustomerID: customerID,
		Delta:      types.NewMoney(5000),
	})
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.NewMoney(6000)))
}

func TestAdjustCustomerBalance_SkipJournal(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{CurrentBalance: types.NewMoney(10)}

	_, err := svc.AdjustCustomerBalance(context.Background(), BalanceChange{
		CustomerID:  customerID,
		Delta:       types.NewMoney(5),
		SkipJournal: true,
	})
	require.NoError(t, err)
	assert.Empty(t, repo.journal)
}

func TestAdjustCustomerBalance_AddToPurchases(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{
		CurrentBalance: types.NewMoney(0),
		TotalPurchases: types.NewMoney(300),
	}

	_, err := svc.AdjustCustomerBalance(context.Background(), BalanceChange{
		CustomerID:     customerID,
		Delta:          types.NewMoney(40),
		AddToPurchases: true,
		SkipJournal:    true,
	})
	require.NoError(t, err)
	assert.True(t, repo.customers[customerID].TotalPurchases.Equal(types.NewMoney(340)))
}

func TestRecordPayment_FullFlow(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	accountID := id.New()
	repo.customers[customerID] = CustomerBalance{CurrentBalance: types.NewMoney(100)}
	repo.accounts[accountID] = types.NewMoney(500)

	payment := &Payment{
		CustomerID: customerID,
		Amount:     types.NewMoney(60),
		Method:     MethodTransfer,
		AccountID:  &accountID,
	}
	require.NoError(t, svc.RecordPayment(context.Background(), payment))

	assert.True(t, repo.customers[customerID].CurrentBalance.Equal(types.NewMoney(40)))
	assert.True(t, repo.accounts[accountID].Equal(types.NewMoney(560)))
	require.Len(t, repo.payments, 1)
	assert.Contains(t, payment.Number, "PAYMENT-")

	// the paired cash inflow references the payment number
	require.Len(t, repo.cashFlows, 1)
	assert.Equal(t, payment.Number, repo.cashFlows[0].Reference)
	assert.Equal(t, "customer_payment", repo.cashFlows[0].Category)
}

func TestRecordPayment_ExceedsBalance(t *testing.T) {
	repo := newFakeMoneyRepo()
	svc := NewService(repo)

	customerID := id.New()
	repo.customers[customerID] = CustomerBalance{CurrentBalance: types.NewMoney(10)}

	err := svc.RecordPayment(context.Background(), &Payment{
		CustomerID: customerID,
		Amount:     types.NewMoney(25),
		Method:     MethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))
	assert.Empty(t, repo.payments)
}

func TestRecordPayment_InvalidMethod(t *testing.T) {
	svc := NewService(newFakeMoneyRepo())

	err := svc.RecordPayment(context.Background(), &Payment{
		CustomerID: id.New(),
		Amount:     types.NewMoney(5),
		Method:     PaymentMethod("barter"),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
