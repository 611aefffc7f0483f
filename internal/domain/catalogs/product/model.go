// Package product provides the Product catalog.
// Product.stock is owned by the stock ledger: every change to it goes
// through a ledger adjustment that also writes an inventory movement row.
package product

import (
	"context"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/types"
)

// Status of a product.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Product represents a sellable/stockable item.
type Product struct {
	entity.Catalog

	// SKU is the unique stock keeping unit
	SKU string `db:"sku" json:"sku"`

	// Stock is the current on-hand quantity. Mutated only by the stock ledger.
	Stock types.Quantity `db:"stock" json:"stock"`

	// CostPrice is the current purchase cost per unit
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// Price is the selling price per unit
	Price types.Money `db:"price" json:"price"`

	MinStock types.Quantity `db:"min_stock" json:"minStock"`
	MaxStock types.Quantity `db:"max_stock" json:"maxStock"`

	Status Status `db:"status" json:"status"`

	Unit string `db:"unit" json:"unit,omitempty"`
}

// NewProduct creates a product with required fields.
func NewProduct(sku, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(sku, name),
		SKU:     sku,
		Status:  StatusActive,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}

	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price must not be negative").
			WithDetail("field", "costPrice")
	}

	if p.Status != StatusActive && p.Status != StatusInactive {
		return apperror.NewValidation("invalid product status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}

	return nil
}

// IsBelowMinStock reports whether stock has fallen under the minimum level.
func (p *Product) IsBelowMinStock() bool {
	return p.MinStock > 0 && p.Stock < p.MinStock
}
