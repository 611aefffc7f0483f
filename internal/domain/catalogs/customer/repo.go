package customer

import (
	"context"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter for customer queries.
type ListFilter struct {
	domain.Page

	Search      string
	WithBalance bool
}

// Repository defines persistence operations for customers.
// Balance mutation is deliberately absent here; it belongs to the money
// ledger repository, which pairs it with a journal row.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, c *Customer) error

	GetByID(ctx context.Context, customerID id.ID) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Customer], error)
}
