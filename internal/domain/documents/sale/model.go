// Package sale implements the sale document and its state machine. A sale
// is the only document that drives the stock ledger, the money ledger and
// the profit recorder together in one transaction.
package sale

import (
	"context"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Status of a sale.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod of a sale. Credit sales raise the customer balance; cash
// sales optionally post an inflow to an account.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

// Sale is a sales document with its line items.
// total = subtotal - discount + tax, recomputed on every item mutation.
type Sale struct {
	entity.Document

	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`
	// AccountID receives the cash inflow for cash sales.
	AccountID *id.ID `db:"account_id" json:"accountId,omitempty"`
	// QuotationID references the source quotation when the sale was created
	// by a conversion. Weak reference by id only.
	QuotationID *id.ID `db:"quotation_id" json:"quotationId,omitempty"`

	Items []*Item `db:"-" json:"items"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Discount types.Money `db:"discount" json:"discount"`
	Tax      types.Money `db:"tax" json:"tax"`
	Total    types.Money `db:"total" json:"total"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`
	Status        Status        `db:"status" json:"status"`

	DueDate      *time.Time `db:"due_date" json:"dueDate,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelReason string     `db:"cancel_reason" json:"cancelReason,omitempty"`
}

// Item is one sale line. cost_at_sale freezes the product cost at creation
// time so later cost changes never rewrite historical profit.
type Item struct {
	ID        id.ID `db:"id" json:"id"`
	SaleID    id.ID `db:"sale_id" json:"saleId"`
	ProductID id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Total     types.Money    `db:"total" json:"total"`

	IsOutsourced           bool         `db:"is_outsourced" json:"isOutsourced"`
	SupplierID             *id.ID       `db:"supplier_id" json:"supplierId,omitempty"`
	OutsourcingCostPerUnit *types.Money `db:"outsourcing_cost_per_unit" json:"outsourcingCostPerUnit,omitempty"`

	CostAtSale types.Money `db:"cost_at_sale" json:"costAtSale"`
}

// NewSale creates a sale in the completed status, the default for direct
// point-of-sale creation.
func NewSale() *Sale {
	return &Sale{
		Document:      entity.NewDocument(),
		Status:        StatusCompleted,
		PaymentMethod: PaymentCash,
		Subtotal:      types.ZeroMoney(),
		Discount:      types.ZeroMoney(),
		Tax:           types.ZeroMoney(),
		Total:         types.ZeroMoney(),
	}
}

// RecalcTotals recomputes subtotal and total from the current items.
func (s *Sale) RecalcTotals() {
	subtotal := types.ZeroMoney()
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.Total)
	}
	s.Subtotal = subtotal
	s.Total = subtotal.Sub(s.Discount).Add(s.Tax)
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	if len(s.Items) == 0 {
		return apperror.NewValidation("sale must have at least one item").
			WithDetail("field", "items")
	}
	if s.PaymentMethod != PaymentCash && s.PaymentMethod != PaymentCredit {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(s.PaymentMethod))
	}
	if s.PaymentMethod == PaymentCredit && (s.CustomerID == nil || id.IsNil(*s.CustomerID)) {
		return apperror.NewValidation("credit sale requires a customer").
			WithDetail("field", "customerId")
	}
	if s.Discount.IsNegative() || s.Tax.IsNegative() {
		return apperror.NewValidation("discount and tax must not be negative")
	}

	for i, item := range s.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("field", "items.productId").
				WithDetail("index", i)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("field", "items.quantity").
				WithDetail("index", i)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewValidation("item price must not be negative").
				WithDetail("field", "items.unitPrice").
				WithDetail("index", i)
		}
		if item.IsOutsourced {
			if item.SupplierID == nil || id.IsNil(*item.SupplierID) {
				return apperror.NewValidation("outsourced item requires a supplier").
					WithDetail("field", "items.supplierId").
					WithDetail("index", i)
			}
			if item.OutsourcingCostPerUnit == nil || item.OutsourcingCostPerUnit.IsNegative() {
				return apperror.NewValidation("outsourced item requires a cost per unit").
					WithDetail("field", "items.outsourcingCostPerUnit").
					WithDetail("index", i)
			}
		}
	}

	return nil
}

// Reversal is the audit record written by a full reversal, referencing
// every restored item.
type Reversal struct {
	ID        id.ID          `db:"id" json:"id"`
	SaleID    id.ID          `db:"sale_id" json:"saleId"`
	Type      string         `db:"type" json:"type"`
	Reason    string         `db:"reason" json:"reason,omitempty"`
	Items     []ReversalItem `db:"-" json:"items"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	CreatedBy string         `db:"created_by" json:"createdBy,omitempty"`
}

// ReversalType for a full sale reversal.
const ReversalTypeFull = "full_reversal"

// ReversalItem is one restored line inside a Reversal.
type ReversalItem struct {
	SaleItemID id.ID          `json:"saleItemId"`
	ProductID  id.ID          `json:"productId"`
	Quantity   types.Quantity `json:"quantity"`
	Restocked  bool           `json:"restocked"`
}
