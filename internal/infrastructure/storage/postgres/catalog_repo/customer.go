package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/customer"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository. Balance columns are written
// only by the money ledger repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo(txManager *postgres.TxManager) *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// List retrieves customers with filtering and pagination.
func (r *CustomerRepo) List(ctx context.Context, filter customer.ListFilter) (domain.ListResult[*customer.Customer], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"phone": pattern},
		})
	}
	if filter.WithBalance {
		q = q.Where(squirrel.Expr("current_balance <> 0"))
	}

	items, total, err := r.listWith(ctx, q, filter.Limit, filter.Offset, filter.OrderBy)
	if err != nil {
		return domain.ListResult[*customer.Customer]{}, err
	}

	return domain.ListResult[*customer.Customer]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
