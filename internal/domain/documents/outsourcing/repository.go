package outsourcing

import (
	"context"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter for outsourcing order queries.
type ListFilter struct {
	domain.Page

	Status     *Status
	SupplierID *id.ID
	SaleID     *id.ID
}

// Repository defines persistence operations for outsourcing orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	// GetByIDForUpdate locks the order row, serializing concurrent
	// delivery attempts on the same order.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	InsertExternalPurchase(ctx context.Context, p *ExternalPurchase) error
}
