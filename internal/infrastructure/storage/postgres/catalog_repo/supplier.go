package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/supplier"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const supplierTable = "cat_suppliers"

// SupplierRepo implements supplier.Repository.
type SupplierRepo struct {
	*BaseCatalogRepo[*supplier.Supplier]
}

// NewSupplierRepo creates a new supplier repository.
func NewSupplierRepo(txManager *postgres.TxManager) *SupplierRepo {
	return &SupplierRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			supplierTable,
			postgres.ExtractDBColumns[supplier.Supplier](),
			func() *supplier.Supplier { return &supplier.Supplier{} },
		),
	}
}

// List retrieves suppliers with filtering and pagination.
func (r *SupplierRepo) List(ctx context.Context, filter supplier.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}

	items, total, err := r.listWith(ctx, q, filter.Limit, filter.Offset, filter.OrderBy)
	if err != nil {
		return domain.ListResult[*supplier.Supplier]{}, err
	}

	return domain.ListResult[*supplier.Supplier]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// AddTotalPurchases applies a signed delta to the lifetime aggregate.
// Decrements are guarded in SQL so the aggregate can never go negative.
func (r *SupplierRepo) AddTotalPurchases(ctx context.Context, supplierID id.ID, delta types.Money) error {
	q := r.Builder().
		Update(supplierTable).
		Set("total_purchases", squirrel.Expr("total_purchases + ?", delta)).
		Where(squirrel.Eq{"id": supplierID})

	if delta.IsNegative() {
		q = q.Where(squirrel.Expr("total_purchases >= ?", delta.Neg()))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust supplier total purchases: %w", err)
	}

	if result.RowsAffected() == 0 {
		if delta.IsNegative() {
			return apperror.NewInvalidState("supplier total purchases would go negative").
				WithDetail("supplier_id", supplierID.String()).
				WithDetail("delta", delta.String())
		}
		return apperror.NewNotFound("supplier", supplierID.String())
	}

	return nil
}
