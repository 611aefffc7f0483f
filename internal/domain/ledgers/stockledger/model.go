// Package stockledger owns Product.stock and the append-only inventory
// movement trail. Every stock change produces exactly one movement row in
// the same transaction; there is no other write path to stock.
package stockledger

import (
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// MovementType classifies a stock change.
type MovementType string

const (
	TypeSale                MovementType = "sale"
	TypeReturn              MovementType = "return"
	TypePurchase            MovementType = "purchase"
	TypeAdjustment          MovementType = "adjustment"
	TypeOutsourcingDelivery MovementType = "outsourcing_delivery"
	TypeQuotationSale       MovementType = "quotation_sale"
)

// Movement is one append-only inventory audit row.
// balance_after = balance_before + quantity, always.
type Movement struct {
	ID        id.ID          `db:"id" json:"id"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	Type      MovementType   `db:"type" json:"type"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"` // signed delta

	BalanceBefore types.Quantity `db:"balance_before" json:"balanceBefore"`
	BalanceAfter  types.Quantity `db:"balance_after" json:"balanceAfter"`

	// Reference ties the movement to its originating document number.
	Reference string `db:"reference" json:"reference,omitempty"`
	Reason    string `db:"reason" json:"reason,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// Adjustment is a request to change a product's stock.
type Adjustment struct {
	ProductID id.ID
	// Delta is the signed quantity change.
	Delta     types.Quantity
	Type      MovementType
	Reference string
	Reason    string

	// AllowNegative must be set explicitly to let the balance go below
	// zero. No adjustment path bypasses the non-negative check implicitly.
	AllowNegative bool
}
