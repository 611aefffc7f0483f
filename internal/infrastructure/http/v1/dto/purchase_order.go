package dto

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/documents/purchaseorder"
)

// PurchaseOrderItemRequest is one line of a purchase order.
type PurchaseOrderItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// CreatePurchaseOrderRequest creates a draft purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID string                     `json:"supplierId" binding:"required"`
	Date       *time.Time                 `json:"date"`
	Items      []PurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Comment    string                     `json:"comment"`
}

// ToEntity converts the request to a domain order.
func (r *CreatePurchaseOrderRequest) ToEntity() (*purchaseorder.Order, error) {
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, err
	}

	o := purchaseorder.NewOrder(supplierID)
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Comment = r.Comment

	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, &purchaseorder.Item{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return o, nil
}

// UpdatePurchaseOrderRequest replaces the items of a draft order.
type UpdatePurchaseOrderRequest struct {
	Date    *time.Time                 `json:"date"`
	Items   []PurchaseOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Comment *string                    `json:"comment"`
	Version int                        `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing order.
func (r *UpdatePurchaseOrderRequest) ApplyTo(o *purchaseorder.Order) error {
	if r.Date != nil {
		o.Date = *r.Date
	}
	if r.Comment != nil {
		o.Comment = *r.Comment
	}

	items := make([]*purchaseorder.Item, 0, len(r.Items))
	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return err
		}
		items = append(items, &purchaseorder.Item{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	o.Items = items
	o.SetVersion(r.Version)
	return nil
}

// ReceiveItemRequest is one delivered line.
type ReceiveItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	Condition string         `json:"condition"`
}

// ReceivePurchaseOrderRequest records a partial or full delivery.
type ReceivePurchaseOrderRequest struct {
	Items []ReceiveItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToDomain converts the request to service receive lines. Condition
// defaults to good.
func (r *ReceivePurchaseOrderRequest) ToDomain() ([]purchaseorder.ReceiveItem, error) {
	lines := make([]purchaseorder.ReceiveItem, 0, len(r.Items))
	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		condition := purchaseorder.ItemCondition(line.Condition)
		if condition == "" {
			condition = purchaseorder.ConditionGood
		}
		lines = append(lines, purchaseorder.ReceiveItem{
			ProductID: productID,
			Quantity:  line.Quantity,
			Condition: condition,
		})
	}
	return lines, nil
}
