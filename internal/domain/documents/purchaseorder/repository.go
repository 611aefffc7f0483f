package purchaseorder

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter narrows purchase order listings.
type ListFilter struct {
	domain.Page

	SupplierID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
}

// Repository persists purchase orders and their items.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	// ReplaceItems rewrites the item rows of a draft order.
	ReplaceItems(ctx context.Context, orderID id.ID, items []*Item) error
	Delete(ctx context.Context, orderID id.ID) error

	GetByID(ctx context.Context, orderID id.ID) (*Order, error)
	// GetByIDForUpdate locks the order header so concurrent receive calls
	// on the same order serialize.
	GetByIDForUpdate(ctx context.Context, orderID id.ID) (*Order, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error)

	UpdateItem(ctx context.Context, item *Item) error
}
