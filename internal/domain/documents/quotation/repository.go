package quotation

import (
	"context"
	"time"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter narrows quotation listings.
type ListFilter struct {
	domain.Page

	CustomerID *id.ID
	Status     *Status
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
}

// Repository persists quotations and their items.
type Repository interface {
	Create(ctx context.Context, q *Quotation) error
	Update(ctx context.Context, q *Quotation) error
	// ReplaceItems rewrites the item rows of a draft quotation.
	ReplaceItems(ctx context.Context, quotationID id.ID, items []*Item) error
	Delete(ctx context.Context, quotationID id.ID) error

	GetByID(ctx context.Context, quotationID id.ID) (*Quotation, error)
	// GetByIDForUpdate locks the header so conversion and status changes
	// serialize.
	GetByIDForUpdate(ctx context.Context, quotationID id.ID) (*Quotation, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error)
}
