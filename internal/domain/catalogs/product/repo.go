package product

import (
	"context"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter for product queries.
type ListFilter struct {
	domain.Page

	Search        string
	Status        *Status
	BelowMinStock bool
}

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error)

	// IsReferenced reports whether the product appears on any sale or
	// purchase order line. Referenced products are never hard-deleted.
	IsReferenced(ctx context.Context, productID id.ID) (bool, error)
}
