// Package ledger_repo provides PostgreSQL implementations for the stock
// and money ledger repositories.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const movementTable = "reg_inventory_movements"

// StockRepo implements stockledger.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{txManager: txManager}
}

func (r *StockRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetStockForUpdate reads current stock under a row lock so concurrent
// adjustments on the same product serialize.
func (r *StockRepo) GetStockForUpdate(ctx context.Context, productID id.ID) (types.Quantity, error) {
	if r.txManager.GetTx(ctx) == nil {
		return 0, fmt.Errorf("GetStockForUpdate requires transaction context")
	}

	sql := `SELECT stock FROM cat_products WHERE id = $1 AND deletion_mark = false FOR UPDATE`

	var stock types.Quantity
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("product", productID.String())
		}
		return 0, fmt.Errorf("lock product stock: %w", err)
	}

	return stock, nil
}

// SetStock writes the new stock value for a previously locked product.
func (r *StockRepo) SetStock(ctx context.Context, productID id.ID, stock types.Quantity) error {
	sql := `UPDATE cat_products SET stock = $1, updated_at = $2 WHERE id = $3`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, stock, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("set product stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

// InsertMovement appends one movement row.
func (r *StockRepo) InsertMovement(ctx context.Context, m *stockledger.Movement) error {
	q := r.builder().
		Insert(movementTable).
		SetMap(postgres.StructToMap(m))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// MovementsByReference returns movements created for a document number.
func (r *StockRepo) MovementsByReference(ctx context.Context, reference string) ([]stockledger.Movement, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[stockledger.Movement]()...).
		From(movementTable).
		Where(squirrel.Eq{"reference": reference}).
		OrderBy("created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stockledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("movements by reference: %w", err)
	}

	return movements, nil
}

// MovementsByProduct returns movement history for a product.
func (r *StockRepo) MovementsByProduct(ctx context.Context, productID id.ID, filter stockledger.MovementFilter) ([]stockledger.Movement, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[stockledger.Movement]()...).
		From(movementTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stockledger.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("movements by product: %w", err)
	}

	return movements, nil
}
