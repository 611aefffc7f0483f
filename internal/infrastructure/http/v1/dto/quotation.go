package dto

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/documents/quotation"
)

// QuotationItemRequest is one line of a quotation.
type QuotationItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// CreateQuotationRequest creates a draft quotation.
type CreateQuotationRequest struct {
	CustomerID string                 `json:"customerId" binding:"required"`
	ValidUntil time.Time              `json:"validUntil" binding:"required"`
	Date       *time.Time             `json:"date"`
	Items      []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount   types.Money            `json:"discount"`
	Comment    string                 `json:"comment"`
}

// ToEntity converts the request to a domain quotation.
func (r *CreateQuotationRequest) ToEntity() (*quotation.Quotation, error) {
	customerID, err := id.Parse(r.CustomerID)
	if err != nil {
		return nil, err
	}

	q := quotation.NewQuotation(customerID, r.ValidUntil)
	if r.Date != nil {
		q.Date = *r.Date
	}
	q.Discount = r.Discount
	q.Comment = r.Comment

	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		q.Items = append(q.Items, &quotation.Item{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	return q, nil
}

// UpdateQuotationRequest replaces the items of a draft quotation.
type UpdateQuotationRequest struct {
	ValidUntil *time.Time             `json:"validUntil"`
	Date       *time.Time             `json:"date"`
	Items      []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount   *types.Money           `json:"discount"`
	Comment    *string                `json:"comment"`
	Version    int                    `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing quotation.
func (r *UpdateQuotationRequest) ApplyTo(q *quotation.Quotation) error {
	if r.ValidUntil != nil {
		q.ValidUntil = *r.ValidUntil
	}
	if r.Date != nil {
		q.Date = *r.Date
	}
	if r.Discount != nil {
		q.Discount = *r.Discount
	}
	if r.Comment != nil {
		q.Comment = *r.Comment
	}

	items := make([]*quotation.Item, 0, len(r.Items))
	for _, line := range r.Items {
		productID, err := id.Parse(line.ProductID)
		if err != nil {
			return err
		}
		items = append(items, &quotation.Item{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	q.Items = items
	q.SetVersion(r.Version)
	return nil
}

// RejectQuotationRequest carries the rejection reason.
type RejectQuotationRequest struct {
	Reason string `json:"reason,omitempty"`
}
