package account

import (
	"context"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
)

// ListFilter for account queries.
type ListFilter struct {
	domain.Page

	Search string
	Type   *Type
}

// Repository defines persistence operations for accounts.
// Balance mutation lives in the money ledger repository.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error

	GetByID(ctx context.Context, accountID id.ID) (*Account, error)
	GetByCode(ctx context.Context, code string) (*Account, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Account], error)
}
