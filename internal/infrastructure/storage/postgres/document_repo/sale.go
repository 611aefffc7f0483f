package document_repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/sale"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const (
	salesTable         = "doc_sales"
	saleItemsTable     = "doc_sale_items"
	saleReversalsTable = "doc_sale_reversals"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale]
	batch *postgres.BatchInserter
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			salesTable,
			postgres.ExtractDBColumns[sale.Sale](),
			func() *sale.Sale { return &sale.Sale{} },
			audit,
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// Create inserts the sale header and its items.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.insertHeader(ctx, s); err != nil {
		return err
	}
	return r.insertItems(ctx, s.ID, s.Items)
}

// Update rewrites the sale header.
func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	if err := r.updateHeader(ctx, s); err != nil {
		return err
	}
	s.SetVersion(s.Version + 1)
	return nil
}

// insertItems bulk-loads the item rows over the COPY protocol. Always runs
// inside the sale's transaction.
func (r *SaleRepo) insertItems(ctx context.Context, saleID id.ID, items []*sale.Item) error {
	if len(items) == 0 {
		return nil
	}

	columns := []string{"id", "sale_id", "product_id", "quantity", "unit_price", "total",
		"is_outsourced", "supplier_id", "outsourcing_cost_per_unit", "cost_at_sale"}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{item.ID, saleID, item.ProductID, item.Quantity,
			item.UnitPrice, item.Total, item.IsOutsourced, item.SupplierID,
			item.OutsourcingCostPerUnit, item.CostAtSale})
	}

	if _, err := r.batch.CopyFromSlice(ctx, saleItemsTable, columns, rows); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}

	return nil
}

func (r *SaleRepo) loadItems(ctx context.Context, saleID id.ID) ([]*sale.Item, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[sale.Item]()...).
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*sale.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a sale with its items.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, false)
}

// GetByIDForUpdate retrieves a sale with its items, locking the header.
func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.get(ctx, saleID, true)
}

func (r *SaleRepo) get(ctx context.Context, saleID id.ID, forUpdate bool) (*sale.Sale, error) {
	s, err := r.getHeader(ctx, saleID, forUpdate)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, saleID)
	if err != nil {
		return nil, err
	}
	s.Items = items

	return s, nil
}

// GetByNumber retrieves a sale by its order number.
func (r *SaleRepo) GetByNumber(ctx context.Context, number string) (*sale.Sale, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"number": number}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", number)
		}
		return nil, fmt.Errorf("get by number: %w", err)
	}

	items, err := r.loadItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items

	return &s, nil
}

// List retrieves sale headers with filtering and pagination. Items are not
// hydrated for listings.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	total, err := r.count(ctx, q)
	if err != nil {
		return domain.ListResult[*sale.Sale]{}, err
	}

	order, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return domain.ListResult[*sale.Sale]{}, err
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
		return domain.ListResult[*sale.Sale]{}, fmt.Errorf("build query: %w", err)
	}

	var sales []*sale.Sale
	if err := pgxscan.Select(ctx, r.querier(ctx), &sales, sql, args...); err != nil {
		return domain.ListResult[*sale.Sale]{}, fmt.Errorf("list sales: %w", err)
	}

	return domain.ListResult[*sale.Sale]{
		Items:      sales,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// UpdateItem rewrites one sale item row.
func (r *SaleRepo) UpdateItem(ctx context.Context, item *sale.Item) error {
	q := r.Builder().
		Update(saleItemsTable).
		Set("quantity", item.Quantity).
		Set("total", item.Total).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale item", item.ID.String())
	}

	return nil
}

// DeleteItem removes one sale item row.
func (r *SaleRepo) DeleteItem(ctx context.Context, itemID id.ID) error {
	sql := "DELETE FROM " + saleItemsTable + " WHERE id = $1"

	result, err := r.querier(ctx).Exec(ctx, sql, itemID)
	if err != nil {
		return fmt.Errorf("delete sale item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale item", itemID.String())
	}

	return nil
}

// InsertReversal appends one reversal record with its restored items as a
// JSON payload.
func (r *SaleRepo) InsertReversal(ctx context.Context, rev *sale.Reversal) error {
	itemsJSON, err := json.Marshal(rev.Items)
	if err != nil {
		return fmt.Errorf("marshal reversal items: %w", err)
	}

	sql := `
		INSERT INTO ` + saleReversalsTable + ` (id, sale_id, type, reason, items, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := r.querier(ctx).Exec(ctx, sql,
		rev.ID, rev.SaleID, rev.Type, rev.Reason, itemsJSON, rev.CreatedAt, rev.CreatedBy,
	); err != nil {
		return fmt.Errorf("insert sale reversal: %w", err)
	}

	return nil
}
