package dto

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/documents/sale"
)

// --- Requests ---

// SaleItemRequest is one line of a sale.
type SaleItemRequest struct {
	ProductID              string         `json:"productId" binding:"required"`
	Quantity               types.Quantity `json:"quantity" binding:"required"`
	UnitPrice              types.Money    `json:"unitPrice"`
	IsOutsourced           bool           `json:"isOutsourced"`
	SupplierID             *string        `json:"supplierId"`
	OutsourcingCostPerUnit *types.Money   `json:"outsourcingCostPerUnit"`
}

// CreateSaleRequest creates and posts a sale.
type CreateSaleRequest struct {
	Date          *time.Time        `json:"date"`
	CustomerID    *string           `json:"customerId"`
	AccountID     *string           `json:"accountId"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      types.Money       `json:"discount"`
	Tax           types.Money       `json:"tax"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        string            `json:"status"`
	DueDate       *time.Time        `json:"dueDate"`
	Comment       string            `json:"comment"`
}

// ToEntity converts the request to a domain sale.
func (r *CreateSaleRequest) ToEntity() (*sale.Sale, error) {
	s := sale.NewSale()
	if r.Date != nil {
		s.Date = *r.Date
	}
	if r.CustomerID != nil {
		customerID, err := id.Parse(*r.CustomerID)
		if err != nil {
			return nil, err
		}
		s.CustomerID = &customerID
	}
	if r.AccountID != nil {
		accountID, err := id.Parse(*r.AccountID)
		if err != nil {
			return nil, err
		}
		s.AccountID = &accountID
	}
	s.Discount = r.Discount
	s.Tax = r.Tax
	if r.PaymentMethod != "" {
		s.PaymentMethod = sale.PaymentMethod(r.PaymentMethod)
	}
	if r.Status != "" {
		s.Status = sale.Status(r.Status)
	}
	s.DueDate = r.DueDate
	s.Comment = r.Comment

	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		item := &sale.Item{
			ProductID:              productID,
			Quantity:               line.Quantity,
			UnitPrice:              line.UnitPrice,
			IsOutsourced:           line.IsOutsourced,
			OutsourcingCostPerUnit: line.OutsourcingCostPerUnit,
		}
		if line.SupplierID != nil {
			supplierID, err := id.Parse(*line.SupplierID)
			if err != nil {
				return nil, err
			}
			item.SupplierID = &supplierID
		}
		s.Items = append(s.Items, item)
	}

	return s, nil
}

// ReturnItemRequest is one returned line of a partial return.
type ReturnItemRequest struct {
	SaleItemID string         `json:"saleItemId" binding:"required"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	Restock    bool           `json:"restock"`
}

// PartialReturnRequest shrinks sale items and refunds the difference.
type PartialReturnRequest struct {
	Items        []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	RefundAmount types.Money         `json:"refundAmount"`
	Reason       string              `json:"reason"`
}

// ToDomain converts the request to the service request type.
func (r *PartialReturnRequest) ToDomain() (sale.PartialReturnRequest, error) {
	req := sale.PartialReturnRequest{
		RefundAmount: r.RefundAmount,
		Reason:       r.Reason,
	}
	for _, line := range r.Items {
		itemID, err := id.Parse(line.SaleItemID)
		if err != nil {
			return sale.PartialReturnRequest{}, err
		}
		req.Items = append(req.Items, sale.ReturnItem{
			SaleItemID: itemID,
			Quantity:   line.Quantity,
			Restock:    line.Restock,
		})
	}
	return req, nil
}

// RevertSaleRequest fully reverses a sale.
type RevertSaleRequest struct {
	Restock bool   `json:"restock"`
	Reason  string `json:"reason"`
}
