package dto

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/documents/outsourcing"
)

// CreateOutsourcingOrderRequest creates a standalone outsourcing order,
// not tied to a sale.
type CreateOutsourcingOrderRequest struct {
	ProductID   string         `json:"productId" binding:"required"`
	SupplierID  string         `json:"supplierId" binding:"required"`
	Quantity    types.Quantity `json:"quantity" binding:"required"`
	CostPerUnit types.Money    `json:"costPerUnit"`
	Date        *time.Time     `json:"date"`
	Comment     string         `json:"comment"`
}

// ToEntity converts the request to a domain order.
func (r *CreateOutsourcingOrderRequest) ToEntity() (*outsourcing.Order, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, err
	}
	supplierID, err := id.Parse(r.SupplierID)
	if err != nil {
		return nil, err
	}

	o := outsourcing.NewOrder(productID, supplierID, r.Quantity, r.CostPerUnit)
	if r.Date != nil {
		o.Date = *r.Date
	}
	o.Comment = r.Comment
	return o, nil
}
