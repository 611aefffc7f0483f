package sale

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	domain.Page

	CustomerID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
}

// Repository persists sales, their items and reversal records. Item rows
// are written with the header in one statement batch; reads hydrate items.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	Update(ctx context.Context, s *Sale) error

	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	// GetByIDForUpdate locks the sale header row so that cancel, restore
	// and partial return serialize against each other.
	GetByIDForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)

	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID id.ID) error

	InsertReversal(ctx context.Context, r *Reversal) error
}
