package profit

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
)

// Repository defines storage for profit records.
type Repository interface {
	// Insert appends one profit record.
	Insert(ctx context.Context, r *Record) error

	// DeleteByReferenceType removes all records of one source type.
	// Used only by the destructive backfill.
	DeleteByReferenceType(ctx context.Context, refType ReferenceType) error

	// ListSaleItems streams all non-cancelled sale items for backfill.
	ListSaleItems(ctx context.Context) ([]BackfillItem, error)

	// ByReference returns records for one source document.
	ByReference(ctx context.Context, refID id.ID) ([]Record, error)
}

// BackfillItem is a sale item joined with its sale for recomputation.
type BackfillItem struct {
	SaleID   id.ID     `db:"sale_id"`
	SaleDate time.Time `db:"sale_date"`
	Item     SaleItemSnapshot
}
