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
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const (
	cashFlowTable = "reg_cash_flows"
	journalTable  = "reg_transactions"
	paymentTable  = "doc_payments"
)

// MoneyRepo implements moneyledger.Repository.
type MoneyRepo struct {
	txManager *postgres.TxManager
}

// NewMoneyRepo creates a new money ledger repository.
func NewMoneyRepo(txManager *postgres.TxManager) *MoneyRepo {
	return &MoneyRepo{txManager: txManager}
}

func (r *MoneyRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetAccountBalanceForUpdate reads account balance under a row lock.
func (r *MoneyRepo) GetAccountBalanceForUpdate(ctx context.Context, accountID id.ID) (types.Money, error) {
	if r.txManager.GetTx(ctx) == nil {
		return types.ZeroMoney(), fmt.Errorf("GetAccountBalanceForUpdate requires transaction context")
	}

	sql := `SELECT balance FROM cat_accounts WHERE id = $1 AND deletion_mark = false FOR UPDATE`

	var balance types.Money
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ZeroMoney(), apperror.NewNotFound("account", accountID.String())
		}
		return types.ZeroMoney(), fmt.Errorf("lock account balance: %w", err)
	}

	return balance, nil
}

// SetAccountBalance writes the new balance for a previously locked account.
func (r *MoneyRepo) SetAccountBalance(ctx context.Context, accountID id.ID, balance types.Money) error {
	sql := `UPDATE cat_accounts SET balance = $1, updated_at = $2 WHERE id = $3`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, balance, time.Now(), accountID)
	if err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("account", accountID.String())
	}

	return nil
}

// InsertCashFlow appends one cash-flow entry.
func (r *MoneyRepo) InsertCashFlow(ctx context.Context, e *moneyledger.CashFlowEntry) error {
	q := r.builder().
		Insert(cashFlowTable).
		SetMap(postgres.StructToMap(e))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash flow: %w", err)
	}

	return nil
}

// GetCustomerForUpdate reads balance fields under a row lock.
func (r *MoneyRepo) GetCustomerForUpdate(ctx context.Context, customerID id.ID) (moneyledger.CustomerBalance, error) {
	if r.txManager.GetTx(ctx) == nil {
		return moneyledger.CustomerBalance{}, fmt.Errorf("GetCustomerForUpdate requires transaction context")
	}

	sql := `
		SELECT id, current_balance, credit_limit, total_purchases
		FROM cat_customers
		WHERE id = $1 AND deletion_mark = false
		FOR UPDATE
	`

	var cb moneyledger.CustomerBalance
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &cb, sql, customerID); err != nil {
		if pgxscan.NotFound(err) {
			return moneyledger.CustomerBalance{}, apperror.NewNotFound("customer", customerID.String())
		}
		return moneyledger.CustomerBalance{}, fmt.Errorf("lock customer balance: %w", err)
	}

	return cb, nil
}

// UpdateCustomerBalance writes balance and the purchases aggregate for a
// previously locked customer.
func (r *MoneyRepo) UpdateCustomerBalance(ctx context.Context, customerID id.ID, balance, totalPurchases types.Money) error {
	sql := `
		UPDATE cat_customers
		SET current_balance = $1, total_purchases = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, balance, totalPurchases, time.Now(), customerID)
	if err != nil {
		return fmt.Errorf("update customer balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("customer", customerID.String())
	}

	return nil
}

// InsertJournalEntry appends one journal row.
func (r *MoneyRepo) InsertJournalEntry(ctx context.Context, e *moneyledger.JournalEntry) error {
	q := r.builder().
		Insert(journalTable).
		SetMap(postgres.StructToMap(e))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	return nil
}

// InsertPayment appends one payment row.
func (r *MoneyRepo) InsertPayment(ctx context.Context, p *moneyledger.Payment) error {
	q := r.builder().
		Insert(paymentTable).
		SetMap(postgres.StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// CashFlows returns entries for reporting reads.
func (r *MoneyRepo) CashFlows(ctx context.Context, filter moneyledger.CashFlowFilter) ([]moneyledger.CashFlowEntry, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[moneyledger.CashFlowEntry]()...).
		From(cashFlowTable).
		OrderBy("created_at DESC")

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.AccountID != nil {
		q = q.Where(squirrel.Eq{"account_id": *filter.AccountID})
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

	var entries []moneyledger.CashFlowEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list cash flows: %w", err)
	}

	return entries, nil
}

// JournalByCustomer returns a customer's journal history.
func (r *MoneyRepo) JournalByCustomer(ctx context.Context, customerID id.ID, limit, offset int) ([]moneyledger.JournalEntry, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[moneyledger.JournalEntry]()...).
		From(journalTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("created_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []moneyledger.JournalEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("journal by customer: %w", err)
	}

	return entries, nil
}
