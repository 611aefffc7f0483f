package stockledger

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
)

// Repository defines the storage contract for the stock ledger.
// All mutating methods must be called inside a transaction; the locked
// read and the paired writes commit or roll back together.
type Repository interface {
	// GetStockForUpdate reads current stock under a row lock (FOR UPDATE),
	// serializing concurrent adjustments on the same product.
	GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error)

	// SetStock writes the new stock value for a previously locked product.
	SetStock(ctx context.Context, productID id.ID, stock types.Quantity) error

	// InsertMovement appends one movement row. Movements are never updated
	// or deleted.
	InsertMovement(ctx context.Context, m *Movement) error

	// MovementsByReference returns movements created for a document number.
	MovementsByReference(ctx context.Context, reference string) ([]Movement, error)

	// MovementsByProduct returns movement history for a product.
	MovementsByProduct(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error)
}

// MovementFilter for movement history queries.
type MovementFilter struct {
	Type     *MovementType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
