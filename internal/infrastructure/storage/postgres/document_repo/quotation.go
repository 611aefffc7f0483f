package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/quotation"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const (
	quotationsTable     = "doc_quotations"
	quotationItemsTable = "doc_quotation_items"
)

// QuotationRepo implements quotation.Repository.
type QuotationRepo struct {
	*BaseDocumentRepo[*quotation.Quotation]
	batch *postgres.BatchInserter
}

// NewQuotationRepo creates a new quotation repository.
func NewQuotationRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *QuotationRepo {
	return &QuotationRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			quotationsTable,
			postgres.ExtractDBColumns[quotation.Quotation](),
			func() *quotation.Quotation { return &quotation.Quotation{} },
			audit,
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// Create inserts the quotation header and its items.
func (r *QuotationRepo) Create(ctx context.Context, q *quotation.Quotation) error {
	if err := r.insertHeader(ctx, q); err != nil {
		return err
	}
	return r.insertItems(ctx, q.ID, q.Items)
}

// Update rewrites the quotation header.
func (r *QuotationRepo) Update(ctx context.Context, q *quotation.Quotation) error {
	if err := r.updateHeader(ctx, q); err != nil {
		return err
	}
	q.SetVersion(q.Version + 1)
	return nil
}

// ReplaceItems rewrites the item rows of a draft quotation.
func (r *QuotationRepo) ReplaceItems(ctx context.Context, quotationID id.ID, items []*quotation.Item) error {
	deleteSQL := "DELETE FROM " + quotationItemsTable + " WHERE quotation_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, quotationID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	return r.insertItems(ctx, quotationID, items)
}

// insertItems bulk-loads the item rows over the COPY protocol. Always runs
// inside the quotation's transaction.
func (r *QuotationRepo) insertItems(ctx context.Context, quotationID id.ID, items []*quotation.Item) error {
	if len(items) == 0 {
		return nil
	}

	columns := []string{"id", "quotation_id", "product_id", "quantity", "unit_price", "total"}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{item.ID, quotationID, item.ProductID, item.Quantity,
			item.UnitPrice, item.Total})
	}

	if _, err := r.batch.CopyFromSlice(ctx, quotationItemsTable, columns, rows); err != nil {
		return fmt.Errorf("insert quotation items: %w", err)
	}

	return nil
}

// Delete removes a draft quotation and its items.
func (r *QuotationRepo) Delete(ctx context.Context, quotationID id.ID) error {
	if _, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+quotationItemsTable+" WHERE quotation_id = $1", quotationID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+quotationsTable+" WHERE id = $1", quotationID)
	if err != nil {
		return fmt.Errorf("delete quotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("quotation", quotationID.String())
	}

	return nil
}

func (r *QuotationRepo) loadItems(ctx context.Context, quotationID id.ID) ([]*quotation.Item, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[quotation.Item]()...).
		From(quotationItemsTable).
		Where(squirrel.Eq{"quotation_id": quotationID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*quotation.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load quotation items: %w", err)
	}

	return items, nil
}

// GetByID retrieves a quotation with its items.
func (r *QuotationRepo) GetByID(ctx context.Context, quotationID id.ID) (*quotation.Quotation, error) {
	return r.get(ctx, quotationID, false)
}

// GetByIDForUpdate retrieves a quotation with its items, locking the header.
func (r *QuotationRepo) GetByIDForUpdate(ctx context.Context, quotationID id.ID) (*quotation.Quotation, error) {
	return r.get(ctx, quotationID, true)
}

func (r *QuotationRepo) get(ctx context.Context, quotationID id.ID, forUpdate bool) (*quotation.Quotation, error) {
	q, err := r.getHeader(ctx, quotationID, forUpdate)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	q.Items = items

	return q, nil
}

// List retrieves quotation headers with filtering and pagination.
func (r *QuotationRepo) List(ctx context.Context, filter quotation.ListFilter) (domain.ListResult[*quotation.Quotation], error) {
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
		return domain.ListResult[*quotation.Quotation]{}, err
	}

	order, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return domain.ListResult[*quotation.Quotation]{}, err
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
		return domain.ListResult[*quotation.Quotation]{}, fmt.Errorf("build query: %w", err)
	}

	var quotations []*quotation.Quotation
	if err := pgxscan.Select(ctx, r.querier(ctx), &quotations, sql, args...); err != nil {
		return domain.ListResult[*quotation.Quotation]{}, fmt.Errorf("list quotations: %w", err)
	}

	return domain.ListResult[*quotation.Quotation]{
		Items:      quotations,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
