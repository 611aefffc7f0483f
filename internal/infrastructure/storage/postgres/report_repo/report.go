// Package report_repo provides read-only reporting queries. Reports
// aggregate what the ledgers and the profit recorder already wrote;
// nothing here mutates state or applies business rules.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/infrastructure/storage/postgres"
)

// ProfitSummary aggregates profit records over a period.
type ProfitSummary struct {
	Revenue types.Money `db:"revenue" json:"revenue"`
	COGS    types.Money `db:"cogs" json:"cogs"`
	Profit  types.Money `db:"profit" json:"profit"`
	Lines   int64       `db:"lines" json:"lines"`
}

// ProductProfitRow is one product's aggregated profit over a period.
type ProductProfitRow struct {
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Revenue     types.Money `db:"revenue" json:"revenue"`
	COGS        types.Money `db:"cogs" json:"cogs"`
	Profit      types.Money `db:"profit" json:"profit"`
}

// TurnoverRow is one day's sales turnover.
type TurnoverRow struct {
	Day       time.Time   `db:"day" json:"day"`
	SaleCount int64       `db:"sale_count" json:"saleCount"`
	Total     types.Money `db:"total" json:"total"`
}

// ReportRepo runs reporting reads against PostgreSQL.
type ReportRepo struct {
	txManager *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txManager: txManager}
}

func (r *ReportRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ProfitSummary returns totals over profit records in [from, to].
func (r *ReportRepo) ProfitSummary(ctx context.Context, from, to time.Time) (*ProfitSummary, error) {
	query, args, err := r.builder().
		Select(
			"COALESCE(SUM(revenue), 0) AS revenue",
			"COALESCE(SUM(cogs), 0) AS cogs",
			"COALESCE(SUM(profit), 0) AS profit",
			"COUNT(*) AS lines",
		).
		From("reg_profit_records").
		Where(squirrel.GtOrEq{"sale_date": from}).
		Where(squirrel.LtOrEq{"sale_date": to}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profit summary query: %w", err)
	}

	var summary ProfitSummary
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &summary, query, args...); err != nil {
		return nil, fmt.Errorf("profit summary: %w", err)
	}
	return &summary, nil
}

// ProfitByProduct returns per-product profit totals over [from, to],
// most profitable first.
func (r *ReportRepo) ProfitByProduct(ctx context.Context, from, to time.Time, limit int) ([]ProductProfitRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query, args, err := r.builder().
		Select(
			"pr.product_id",
			"p.name AS product_name",
			"COALESCE(SUM(pr.revenue), 0) AS revenue",
			"COALESCE(SUM(pr.cogs), 0) AS cogs",
			"COALESCE(SUM(pr.profit), 0) AS profit",
		).
		From("reg_profit_records pr").
		Join("cat_products p ON p.id = pr.product_id").
		Where(squirrel.GtOrEq{"pr.sale_date": from}).
		Where(squirrel.LtOrEq{"pr.sale_date": to}).
		GroupBy("pr.product_id", "p.name").
		OrderBy("profit DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build profit by product query: %w", err)
	}

	var rows []ProductProfitRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("profit by product: %w", err)
	}
	return rows, nil
}

// SalesTurnover returns daily sale counts and totals over [from, to].
// Cancelled sales are excluded.
func (r *ReportRepo) SalesTurnover(ctx context.Context, from, to time.Time) ([]TurnoverRow, error) {
	query, args, err := r.builder().
		Select(
			"date_trunc('day', date) AS day",
			"COUNT(*) AS sale_count",
			"COALESCE(SUM(total), 0) AS total",
		).
		From("doc_sales").
		Where(squirrel.NotEq{"status": "cancelled"}).
		Where(squirrel.GtOrEq{"date": from}).
		Where(squirrel.LtOrEq{"date": to}).
		GroupBy("day").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build turnover query: %w", err)
	}

	var rows []TurnoverRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sales turnover: %w", err)
	}
	return rows, nil
}

// StockValuation returns the current stock value at cost price across
// all non-deleted products.
func (r *ReportRepo) StockValuation(ctx context.Context) (types.Money, error) {
	var value decimal.Decimal
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM((stock::numeric / 10000) * cost_price), 0)
		FROM cat_products
		WHERE deletion_mark = false
	`).Scan(&value)
	if err != nil {
		return types.Money{}, fmt.Errorf("stock valuation: %w", err)
	}
	return value, nil
}
