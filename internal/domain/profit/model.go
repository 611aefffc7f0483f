// Package profit computes and stores per-sale-item revenue/COGS/profit
// snapshots. Records are written at sale time and consumed only by
// reporting; the core never reads them back.
package profit

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// ReferenceType classifies the record source.
type ReferenceType string

const (
	ReferenceSale ReferenceType = "sale"
)

// Record is one immutable profit snapshot. profit = revenue - cogs.
type Record struct {
	ID            id.ID         `db:"id" json:"id"`
	ReferenceID   id.ID         `db:"reference_id" json:"referenceId"`
	ReferenceType ReferenceType `db:"reference_type" json:"referenceType"`
	ProductID     id.ID         `db:"product_id" json:"productId"`

	Revenue types.Money `db:"revenue" json:"revenue"`
	COGS    types.Money `db:"cogs" json:"cogs"`
	Profit  types.Money `db:"profit" json:"profit"`

	SaleDate  time.Time `db:"sale_date" json:"saleDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SaleItemSnapshot carries the sale item fields the recorder needs.
// The cost side is frozen at sale time: cost_at_sale for stocked items,
// the outsourcing cost per unit for outsourced ones.
type SaleItemSnapshot struct {
	ProductID              id.ID
	Quantity               types.Quantity
	Total                  types.Money // revenue for the line
	IsOutsourced           bool
	OutsourcingCostPerUnit *types.Money
	CostAtSale             types.Money
}

// EffectiveCost returns the per-unit cost used for COGS.
func (s SaleItemSnapshot) EffectiveCost() types.Money {
	if s.IsOutsourced && s.OutsourcingCostPerUnit != nil {
		return *s.OutsourcingCostPerUnit
	}
	return s.CostAtSale
}
