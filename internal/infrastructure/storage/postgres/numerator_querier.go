package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"stockbooks/pkg/numerator"
)

// Compile-time check that the adapter satisfies the numerator contract.
var _ numerator.Querier = (*NumeratorQuerier)(nil)

// NumeratorQuerier routes numerator queries through the transaction
// manager, so a number allocated during document creation is part of
// the same transaction and rolls back with it.
type NumeratorQuerier struct {
	txManager *TxManager
}

// NewNumeratorQuerier creates a tx-aware querier for the numerator service.
func NewNumeratorQuerier(txManager *TxManager) *NumeratorQuerier {
	return &NumeratorQuerier{txManager: txManager}
}

func (q *NumeratorQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
