package dto

import (
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
)

// --- Stock ledger ---

// StockAdjustmentRequest applies a manual signed stock change.
type StockAdjustmentRequest struct {
	ProductID     string         `json:"productId" binding:"required"`
	Delta         types.Quantity `json:"delta" binding:"required"`
	Reason        string         `json:"reason" binding:"required"`
	Reference     string         `json:"reference"`
	AllowNegative bool           `json:"allowNegative"`
}

// ToDomain converts the request to a ledger adjustment.
func (r *StockAdjustmentRequest) ToDomain() (stockledger.Adjustment, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return stockledger.Adjustment{}, err
	}
	return stockledger.Adjustment{
		ProductID:     productID,
		Delta:         r.Delta,
		Type:          stockledger.TypeAdjustment,
		Reference:     r.Reference,
		Reason:        r.Reason,
		AllowNegative: r.AllowNegative,
	}, nil
}

// --- Money ledger ---

// PostCashFlowRequest records a manual inflow or outflow on an account.
type PostCashFlowRequest struct {
	Type      string      `json:"type" binding:"required,oneof=inflow outflow"`
	Amount    types.Money `json:"amount" binding:"required"`
	AccountID string      `json:"accountId" binding:"required"`
	Category  string      `json:"category"`
	Reference string      `json:"reference"`
	Notes     string      `json:"notes"`
}

// ToDomain converts the request to a cash flow entry.
func (r *PostCashFlowRequest) ToDomain() (*moneyledger.CashFlowEntry, error) {
	accountID, err := id.Parse(r.AccountID)
	if err != nil {
		return nil, err
	}
	return &moneyledger.CashFlowEntry{
		Type:      moneyledger.FlowType(r.Type),
		Amount:    r.Amount,
		AccountID: &accountID,
		Category:  r.Category,
		Reference: r.Reference,
		Notes:     r.Notes,
	}, nil
}

// RecordPaymentRequest records money received from a customer against
// their outstanding balance.
type RecordPaymentRequest struct {
	CustomerID string      `json:"customerId" binding:"required"`
	Amount     types.Money `json:"amount" binding:"required"`
	Method     string      `json:"method" binding:"required,oneof=cash transfer"`
	AccountID  *string     `json:"accountId"`
	Reference  string      `json:"reference"`
	Notes      string      `json:"notes"`
}

// ToDomain converts the request to a payment.
func (r *RecordPaymentRequest) ToDomain() (*moneyledger.Payment, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	p := &moneyledger.Payment{
		CustomerID: customerID,
		Amount:     r.Amount,
		Method:     moneyledger.PaymentMethod(r.Method),
		Reference:  r.Reference,
		Notes:      r.Notes,
	}
	if r.AccountID != nil {
		accountID, err := id.Parse(*r.AccountID)
		if err != nil {
			return nil, err
		}
		p.AccountID = &accountID
	}
	return p, nil
}

// AdjustBalanceRequest applies a signed manual change to a customer
// balance, paired with a journal row.
type AdjustBalanceRequest struct {
	Delta     types.Money `json:"delta" binding:"required"`
	Label     string      `json:"label" binding:"required"`
	Reference string      `json:"reference"`
}
