package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const (
	outsourcingOrdersTable = "doc_outsourcing_orders"
	externalPurchasesTable = "reg_external_purchases"
)

// OutsourcingRepo implements outsourcing.Repository.
type OutsourcingRepo struct {
	*BaseDocumentRepo[*outsourcing.Order]
}

// NewOutsourcingRepo creates a new outsourcing order repository.
func NewOutsourcingRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *OutsourcingRepo {
	return &OutsourcingRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			outsourcingOrdersTable,
			postgres.ExtractDBColumns[outsourcing.Order](),
			func() *outsourcing.Order { return &outsourcing.Order{} },
			audit,
		),
	}
}

// Create inserts an outsourcing order.
func (r *OutsourcingRepo) Create(ctx context.Context, o *outsourcing.Order) error {
	return r.insertHeader(ctx, o)
}

// Update rewrites an outsourcing order.
func (r *OutsourcingRepo) Update(ctx context.Context, o *outsourcing.Order) error {
	if err := r.updateHeader(ctx, o); err != nil {
		return err
	}
	o.SetVersion(o.Version + 1)
	return nil
}

// GetByID retrieves an outsourcing order.
func (r *OutsourcingRepo) GetByID(ctx context.Context, orderID id.ID) (*outsourcing.Order, error) {
	return r.getHeader(ctx, orderID, false)
}

// GetByIDForUpdate retrieves an outsourcing order under a row lock so
// concurrent delivery calls on the same order serialize.
func (r *OutsourcingRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*outsourcing.Order, error) {
	return r.getHeader(ctx, orderID, true)
}

// List retrieves outsourcing orders with filtering and pagination.
func (r *OutsourcingRepo) List(ctx context.Context, filter outsourcing.ListFilter) (domain.ListResult[*outsourcing.Order], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.SaleID != nil {
		q = q.Where(squirrel.Eq{"sale_id": *filter.SaleID})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return domain.ListResult[*outsourcing.Order]{}, err
	}

	order, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return domain.ListResult[*outsourcing.Order]{}, err
	}
	q = q.OrderBy(order)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return domain.ListResult[*outsourcing.Order]{}, fmt.Errorf("build query: %w", err)
	}

	var orders []*outsourcing.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &orders, sql, args...); err != nil {
		return domain.ListResult[*outsourcing.Order]{}, fmt.Errorf("list outsourcing orders: %w", err)
	}

	return domain.ListResult[*outsourcing.Order]{
		Items:      orders,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// InsertExternalPurchase appends one external purchase record.
func (r *OutsourcingRepo) InsertExternalPurchase(ctx context.Context, p *outsourcing.ExternalPurchase) error {
	q := r.Builder().
		Insert(externalPurchasesTable).
		SetMap(postgres.StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert external purchase: %w", err)
	}

	return nil
}
