package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// Delete marks a product deleted.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID) error {
	return r.SoftDelete(ctx, productID)
}

// GetBySKU retrieves a product by its stock keeping unit.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.querier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, fmt.Errorf("get by sku: %w", err)
	}

	return &p, nil
}

// List retrieves products with filtering and pagination.
func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.BelowMinStock {
		q = q.Where(squirrel.Expr("stock < min_stock"))
	}

	items, total, err := r.listWith(ctx, q, filter.Limit, filter.Offset, filter.OrderBy)
	if err != nil {
		return domain.ListResult[*product.Product]{}, err
	}

	return domain.ListResult[*product.Product]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// IsReferenced reports whether the product appears on any sale or purchase
// order line.
func (r *ProductRepo) IsReferenced(ctx context.Context, productID id.ID) (bool, error) {
	sql := `
		SELECT EXISTS (SELECT 1 FROM doc_sale_items WHERE product_id = $1)
		    OR EXISTS (SELECT 1 FROM doc_purchase_order_items WHERE product_id = $1)
	`

	var referenced bool
	if err := r.querier(ctx).QueryRow(ctx, sql, productID).Scan(&referenced); err != nil {
		return false, fmt.Errorf("check product references: %w", err)
	}

	return referenced, nil
}
