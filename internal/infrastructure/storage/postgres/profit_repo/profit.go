// Package profit_repo provides the PostgreSQL implementation for the
// profit recorder repository.
package profit_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/profit"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const profitTable = "reg_profit_records"

// ProfitRepo implements profit.Repository.
type ProfitRepo struct {
	txManager *postgres.TxManager
}

// NewProfitRepo creates a new profit repository.
func NewProfitRepo(txManager *postgres.TxManager) *ProfitRepo {
	return &ProfitRepo{txManager: txManager}
}

func (r *ProfitRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert appends one profit record.
func (r *ProfitRepo) Insert(ctx context.Context, rec *profit.Record) error {
	q := r.builder().
		Insert(profitTable).
		SetMap(postgres.StructToMap(rec))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert profit record: %w", err)
	}

	return nil
}

// DeleteByReferenceType removes all records of one source type. Used only
// by the destructive backfill.
func (r *ProfitRepo) DeleteByReferenceType(ctx context.Context, refType profit.ReferenceType) error {
	q := r.builder().
		Delete(profitTable).
		Where(squirrel.Eq{"reference_type": refType})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete profit records: %w", err)
	}

	return nil
}

// backfillRow is the flat scan target for the backfill join.
type backfillRow struct {
	SaleID                 id.ID          `db:"sale_id"`
	SaleDate               time.Time      `db:"sale_date"`
	ProductID              id.ID          `db:"product_id"`
	Quantity               types.Quantity `db:"quantity"`
	Total                  types.Money    `db:"total"`
	IsOutsourced           bool           `db:"is_outsourced"`
	OutsourcingCostPerUnit *types.Money   `db:"outsourcing_cost_per_unit"`
	CostAtSale             types.Money    `db:"cost_at_sale"`
}

// ListSaleItems returns all items of non-cancelled sales for backfill.
func (r *ProfitRepo) ListSaleItems(ctx context.Context) ([]profit.BackfillItem, error) {
	sql := `
		SELECT i.sale_id, s.date AS sale_date, i.product_id, i.quantity,
		       i.total, i.is_outsourced, i.outsourcing_cost_per_unit, i.cost_at_sale
		FROM doc_sale_items i
		JOIN doc_sales s ON s.id = i.sale_id
		WHERE s.status <> 'cancelled'
		ORDER BY s.date ASC
	`

	var rows []backfillRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql); err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}

	items := make([]profit.BackfillItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, profit.BackfillItem{
			SaleID:   row.SaleID,
			SaleDate: row.SaleDate,
			Item: profit.SaleItemSnapshot{
				ProductID:              row.ProductID,
				Quantity:               row.Quantity,
				Total:                  row.Total,
				IsOutsourced:           row.IsOutsourced,
				OutsourcingCostPerUnit: row.OutsourcingCostPerUnit,
				CostAtSale:             row.CostAtSale,
			},
		})
	}

	return items, nil
}

// ByReference returns records for one source document.
func (r *ProfitRepo) ByReference(ctx context.Context, refID id.ID) ([]profit.Record, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[profit.Record]()...).
		From(profitTable).
		Where(squirrel.Eq{"reference_id": refID}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var records []profit.Record
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &records, sql, args...); err != nil {
		return nil, fmt.Errorf("profit by reference: %w", err)
	}

	return records, nil
}
