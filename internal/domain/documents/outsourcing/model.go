// Package outsourcing provides the OutsourcingOrder document: a fulfillment
// request sent to an external supplier instead of drawing from owned stock.
//
// The order holds weak references to the originating sale by id only; a
// cancelled sale does not invalidate the order.
package outsourcing

import (
	"context"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Status of an outsourcing order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOrdered   Status = "ordered"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order represents an outsourced fulfillment request.
// Only the pending→ordered→delivered|cancelled transitions are legal, and
// only delivered increments product stock.
type Order struct {
	entity.Document

	// SaleID references the originating sale, when created implicitly from
	// an outsourced sale item. Weak reference: the sale may be cancelled
	// independently.
	SaleID     *id.ID `db:"sale_id" json:"saleId,omitempty"`
	SaleItemID *id.ID `db:"sale_item_id" json:"saleItemId,omitempty"`

	ProductID  id.ID `db:"product_id" json:"productId"`
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Quantity    types.Quantity `db:"quantity" json:"quantity"`
	CostPerUnit types.Money    `db:"cost_per_unit" json:"costPerUnit"`
	TotalCost   types.Money    `db:"total_cost" json:"totalCost"`

	Status Status `db:"status" json:"status"`

	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
}

// NewOrder creates a pending outsourcing order.
func NewOrder(productID, supplierID id.ID, quantity types.Quantity, costPerUnit types.Money) *Order {
	return &Order{
		Document:    entity.NewDocument(),
		ProductID:   productID,
		SupplierID:  supplierID,
		Quantity:    quantity,
		CostPerUnit: costPerUnit,
		TotalCost:   costPerUnit.Mul(quantity.Decimal()),
		Status:      StatusPending,
	}
}

// Validate implements entity.Validatable.
func (o *Order) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if id.IsNil(o.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if !o.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	if o.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit must not be negative").
			WithDetail("field", "costPerUnit")
	}

	return nil
}

// ExternalPurchase records the cost commitment created alongside an
// outsourced sale item.
type ExternalPurchase struct {
	ID                 id.ID          `db:"id" json:"id"`
	SaleID             *id.ID         `db:"sale_id" json:"saleId,omitempty"`
	OutsourcingOrderID id.ID          `db:"outsourcing_order_id" json:"outsourcingOrderId"`
	ProductID          id.ID          `db:"product_id" json:"productId"`
	SupplierID         id.ID          `db:"supplier_id" json:"supplierId"`
	Quantity           types.Quantity `db:"quantity" json:"quantity"`
	CostPerUnit        types.Money    `db:"cost_per_unit" json:"costPerUnit"`
	TotalCost          types.Money    `db:"total_cost" json:"totalCost"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
}
