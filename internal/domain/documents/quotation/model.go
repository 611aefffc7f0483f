// Package quotation implements the quotation document and its conversion
// into a credit sale. Expiry is lazy: checked when a quotation is read or
// converted, never by a background job.
package quotation

import (
	"context"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Status of a quotation. accepted, rejected and expired are terminal.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Quotation is a priced offer with a validity window.
type Quotation struct {
	entity.Document

	CustomerID id.ID   `db:"customer_id" json:"customerId"`
	Items      []*Item `db:"-" json:"items"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Discount types.Money `db:"discount" json:"discount"`
	Total    types.Money `db:"total" json:"total"`

	ValidUntil time.Time `db:"valid_until" json:"validUntil"`
	Status     Status    `db:"status" json:"status"`
}

// Item is one quotation line.
type Item struct {
	ID          id.ID `db:"id" json:"id"`
	QuotationID id.ID `db:"quotation_id" json:"quotationId"`
	ProductID   id.ID `db:"product_id" json:"productId"`

	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	Total     types.Money    `db:"total" json:"total"`
}

// NewQuotation creates a draft quotation.
func NewQuotation(customerID id.ID, validUntil time.Time) *Quotation {
	return &Quotation{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		ValidUntil: validUntil,
		Status:     StatusDraft,
		Subtotal:   types.ZeroMoney(),
		Discount:   types.ZeroMoney(),
		Total:      types.ZeroMoney(),
	}
}

// RecalcTotals recomputes subtotal and total from the current items.
func (q *Quotation) RecalcTotals() {
	subtotal := types.ZeroMoney()
	for _, item := range q.Items {
		subtotal = subtotal.Add(item.Total)
	}
	q.Subtotal = subtotal
	q.Total = subtotal.Sub(q.Discount)
}

// IsExpired reports whether the validity window has passed as of now.
func (q *Quotation) IsExpired(now time.Time) bool {
	return q.ValidUntil.Before(truncateToDay(now))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Validate implements entity.Validatable.
func (q *Quotation) Validate(ctx context.Context) error {
	if err := q.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(q.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if len(q.Items) == 0 {
		return apperror.NewValidation("quotation must have at least one item").
			WithDetail("field", "items")
	}
	if q.ValidUntil.IsZero() {
		return apperror.NewValidation("validity date is required").
			WithDetail("field", "validUntil")
	}
	if q.Discount.IsNegative() {
		return apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discount")
	}

	for i, item := range q.Items {
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
