// Package purchaseorder implements the purchase order document and its
// partial-receiving flow against the stock ledger.
package purchaseorder

import (
	"context"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Status of a purchase order. received and partially_received are derived
// from the item receive counters, never set directly by callers.
type Status string

const (
	StatusDraft             Status = "draft"
	StatusSent              Status = "sent"
	StatusConfirmed         Status = "confirmed"
	StatusPartiallyReceived Status = "partially_received"
	StatusReceived          Status = "received"
	StatusCancelled         Status = "cancelled"
)

// ItemCondition of received goods. Only good condition reaches the shelf.
type ItemCondition string

const (
	ConditionGood    ItemCondition = "good"
	ConditionDamaged ItemCondition = "damaged"
)

// Order is a purchase order with its line items.
type Order struct {
	entity.Document

	SupplierID id.ID   `db:"supplier_id" json:"supplierId"`
	Items      []*Item `db:"-" json:"items"`

	Total  types.Money `db:"total" json:"total"`
	Status Status      `db:"status" json:"status"`
}

// Item is one purchase order line. quantity_received only ever grows and
// never exceeds quantity.
type Item struct {
	ID              id.ID `db:"id" json:"id"`
	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`
	ProductID       id.ID `db:"product_id" json:"productId"`

	Quantity         types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice        types.Money    `db:"unit_price" json:"unitPrice"`
	Total            types.Money    `db:"total" json:"total"`
	QuantityReceived types.Quantity `db:"quantity_received" json:"quantityReceived"`
	Condition        ItemCondition  `db:"item_condition" json:"itemCondition"`
}

// Remaining is the quantity still outstanding for the line.
func (i *Item) Remaining() types.Quantity {
	return types.NewQuantityFromInt64Scaled(i.Quantity.Int64Scaled() - i.QuantityReceived.Int64Scaled())
}

// NewOrder creates a draft purchase order.
func NewOrder(supplierID id.ID) *Order {
	return &Order{
		Document:   entity.NewDocument(),
		SupplierID: supplierID,
		Status:     StatusDraft,
		Total:      types.ZeroMoney(),
	}
}

// RecalcTotal recomputes the order total from its items.
func (o *Order) RecalcTotal() {
	total := types.ZeroMoney()
	for _, item := range o.Items {
		total = total.Add(item.Total)
	}
	o.Total = total
}

// RecalcStatus derives the receiving status from the item counters.
func (o *Order) RecalcStatus() {
	var received, total int64
	for _, item := range o.Items {
		received += item.QuantityReceived.Int64Scaled()
		total += item.Quantity.Int64Scaled()
	}
	switch {
	case received == 0:
		// leave the pre-receive status untouched
	case received >= total:
		o.Status = StatusReceived
	default:
		o.Status = StatusPartiallyReceived
	}
}

// Editable reports whether the order can still be changed or deleted.
func (o *Order) Editable() bool {
	return o.Status == StatusDraft
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("purchase order must have at least one item").
			WithDetail("field", "items")
	}

	for i, item := range o.Items {
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
	}

	return nil
}
