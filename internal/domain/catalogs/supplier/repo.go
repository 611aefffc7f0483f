package supplier

import (
	"context"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
)

// ListFilter for supplier queries.
type ListFilter struct {
	domain.Page

	Search string
}

// Repository defines persistence operations for suppliers.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error

	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	GetByCode(ctx context.Context, code string) (*Supplier, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Supplier], error)

	// AddTotalPurchases applies a signed delta to the lifetime aggregate.
	// Negative deltas are guarded in SQL (total_purchases >= |delta|) so the
	// aggregate can never go negative; a failed guard returns InvalidState.
	AddTotalPurchases(ctx context.Context, supplierID id.ID, delta types.Money) error
}
