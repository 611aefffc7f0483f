package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/purchaseorder"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const (
	purchaseOrdersTable     = "doc_purchase_orders"
	purchaseOrderItemsTable = "doc_purchase_order_items"
)

// PurchaseOrderRepo implements purchaseorder.Repository.
type PurchaseOrderRepo struct {
	*BaseDocumentRepo[*purchaseorder.Order]
	batch *postgres.BatchInserter
}

// NewPurchaseOrderRepo creates a new purchase order repository.
func NewPurchaseOrderRepo(txManager *postgres.TxManager, audit *postgres.AuditService) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			purchaseOrdersTable,
			postgres.ExtractDBColumns[purchaseorder.Order](),
			func() *purchaseorder.Order { return &purchaseorder.Order{} },
			audit,
		),
		batch: postgres.NewBatchInserter(txManager),
	}
}

// Create inserts the order header and its items.
func (r *PurchaseOrderRepo) Create(ctx context.Context, o *purchaseorder.Order) error {
	if err := r.insertHeader(ctx, o); err != nil {
		return err
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// Update rewrites the order header.
func (r *PurchaseOrderRepo) Update(ctx context.Context, o *purchaseorder.Order) error {
	if err := r.updateHeader(ctx, o); err != nil {
		return err
	}
	o.SetVersion(o.Version + 1)
	return nil
}

// ReplaceItems rewrites the item rows of a draft order.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, orderID id.ID, items []*purchaseorder.Item) error {
	deleteSQL := "DELETE FROM " + purchaseOrderItemsTable + " WHERE purchase_order_id = $1"
	if _, err := r.querier(ctx).Exec(ctx, deleteSQL, orderID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}
	return r.insertItems(ctx, orderID, items)
}

// insertItems bulk-loads the item rows over the COPY protocol. Always runs
// inside the order's transaction.
func (r *PurchaseOrderRepo) insertItems(ctx context.Context, orderID id.ID, items []*purchaseorder.Item) error {
	if len(items) == 0 {
		return nil
	}

	columns := []string{"id", "purchase_order_id", "product_id", "quantity", "unit_price",
		"total", "quantity_received", "item_condition"}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, []any{item.ID, orderID, item.ProductID, item.Quantity,
			item.UnitPrice, item.Total, item.QuantityReceived, item.Condition})
	}

	if _, err := r.batch.CopyFromSlice(ctx, purchaseOrderItemsTable, columns, rows); err != nil {
		return fmt.Errorf("insert purchase order items: %w", err)
	}

	return nil
}

// Delete removes a draft order and its items.
func (r *PurchaseOrderRepo) Delete(ctx context.Context, orderID id.ID) error {
	if _, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+purchaseOrderItemsTable+" WHERE purchase_order_id = $1", orderID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx,
		"DELETE FROM "+purchaseOrdersTable+" WHERE id = $1", orderID)
	if err != nil {
		return fmt.Errorf("delete purchase order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", orderID.String())
	}

	return nil
}

func (r *PurchaseOrderRepo) loadItems(ctx context.Context, orderID id.ID) ([]*purchaseorder.Item, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[purchaseorder.Item]()...).
		From(purchaseOrderItemsTable).
		Where(squirrel.Eq{"purchase_order_id": orderID}).
		OrderBy("id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*purchaseorder.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("load purchase order items: %w", err)
	}

	return items, nil
}

// GetByID retrieves an order with its items.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*purchaseorder.Order, error) {
	return r.get(ctx, orderID, false)
}

// GetByIDForUpdate retrieves an order with its items, locking the header.
func (r *PurchaseOrderRepo) GetByIDForUpdate(ctx context.Context, orderID id.ID) (*purchaseorder.Order, error) {
	return r.get(ctx, orderID, true)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, orderID id.ID, forUpdate bool) (*purchaseorder.Order, error) {
	o, err := r.getHeader(ctx, orderID, forUpdate)
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// List retrieves order headers with filtering and pagination.
func (r *PurchaseOrderRepo) List(ctx context.Context, filter purchaseorder.ListFilter) (domain.ListResult[*purchaseorder.Order], error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false})

	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
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
		return domain.ListResult[*purchaseorder.Order]{}, err
	}

	order, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return domain.ListResult[*purchaseorder.Order]{}, err
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
		return domain.ListResult[*purchaseorder.Order]{}, fmt.Errorf("build query: %w", err)
	}

	var orders []*purchaseorder.Order
	if err := pgxscan.Select(ctx, r.querier(ctx), &orders, sql, args...); err != nil {
		return domain.ListResult[*purchaseorder.Order]{}, fmt.Errorf("list purchase orders: %w", err)
	}

	return domain.ListResult[*purchaseorder.Order]{
		Items:      orders,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// UpdateItem rewrites the receive counters of one item row.
func (r *PurchaseOrderRepo) UpdateItem(ctx context.Context, item *purchaseorder.Item) error {
	q := r.Builder().
		Update(purchaseOrderItemsTable).
		Set("quantity_received", item.QuantityReceived).
		Set("item_condition", item.Condition).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update purchase order item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order item", item.ID.String())
	}

	return nil
}
