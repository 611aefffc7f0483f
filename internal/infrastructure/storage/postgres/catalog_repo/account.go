package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/account"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const accountTable = "cat_accounts"

// AccountRepo implements account.Repository. The balance column is written
// only by the money ledger repository.
type AccountRepo struct {
	*BaseCatalogRepo[*account.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txManager *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			accountTable,
			postgres.ExtractDBColumns[account.Account](),
			func() *account.Account { return &account.Account{} },
		),
	}
}

// List retrieves accounts with filtering and pagination.
func (r *AccountRepo) List(ctx context.Context, filter account.ListFilter) (domain.ListResult[*account.Account], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}

	items, total, err := r.listWith(ctx, q, filter.Limit, filter.Offset, filter.OrderBy)
	if err != nil {
		return domain.ListResult[*account.Account]{}, err
	}

	return domain.ListResult[*account.Account]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
