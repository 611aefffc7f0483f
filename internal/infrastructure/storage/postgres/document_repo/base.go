// Package document_repo provides PostgreSQL implementations for document
// repositories: sales, purchase orders, quotations and outsourcing orders.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides common operations for document headers.
// Embed this in specific document repositories.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	selectCols []string
	newFn      func() T
	audit      *postgres.AuditService
}

// NewBaseDocumentRepo creates a new base document repository. Header writes
// are audited through the given audit service when one is provided.
func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	selectCols []string,
	newFn func() T,
	audit *postgres.AuditService,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		selectCols: selectCols,
		newFn:      newFn,
		audit:      audit,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// insertHeader inserts a document header row using its "db" tags.
func (r *BaseDocumentRepo[T]) insertHeader(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return r.logAudit(ctx, data, postgres.AuditActionCreate, filteredData)
}

// updateHeader updates a document header with optimistic locking.
func (r *BaseDocumentRepo[T]) updateHeader(ctx context.Context, doc T) error {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in document")
	}

	docID, ok := data["id"]
	if !ok {
		return fmt.Errorf("document has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("document has no 'version' field or it is not an int")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if col == "id" || col == "version" {
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, docID)
	}

	return r.logAudit(ctx, data, postgres.AuditActionUpdate, filteredData)
}

// logAudit records the written header snapshot in the same transaction.
func (r *BaseDocumentRepo[T]) logAudit(ctx context.Context, data map[string]any, action postgres.AuditAction, changes map[string]any) error {
	if r.audit == nil {
		return nil
	}
	docID, ok := data["id"].(id.ID)
	if !ok {
		return fmt.Errorf("document has no 'id' field with db tag")
	}
	if err := r.audit.LogChange(ctx, r.tableName, docID, action, changes); err != nil {
		return fmt.Errorf("audit %s: %w", r.tableName, err)
	}
	return nil
}

// baseSelect creates a SELECT builder over the header columns.
func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// getHeader retrieves a header by ID, optionally locking the row.
func (r *BaseDocumentRepo[T]) getHeader(ctx context.Context, docID id.ID, forUpdate bool) (T, error) {
	doc := r.newFn()

	q := r.baseSelect().
		Where(squirrel.Eq{"id": docID}).
		Limit(1)
	if forUpdate {
		if r.txManager.GetTx(ctx) == nil {
			return doc, fmt.Errorf("locked read requires transaction context")
		}
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.tableName, docID.String())
		}
		return doc, fmt.Errorf("get by id: %w", err)
	}

	return doc, nil
}

// count runs a COUNT over the filtered query.
func (r *BaseDocumentRepo[T]) count(ctx context.Context, q squirrel.SelectBuilder) (int, error) {
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}

	return total, nil
}

// parseOrderBy validates a "column [asc|desc]" clause against the header
// columns. An empty clause orders by date, newest first.
func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "date DESC", nil
	}

	parts := strings.Fields(orderBy)
	if len(parts) > 2 {
		return "", apperror.NewValidation("invalid order by clause").
			WithDetail("order_by", orderBy)
	}

	col := parts[0]
	valid := false
	for _, c := range r.selectCols {
		if c == col {
			valid = true
			break
		}
	}
	if !valid {
		return "", apperror.NewValidation("unknown order by column").
			WithDetail("column", col)
	}

	dir := "DESC"
	if len(parts) == 2 {
		switch strings.ToUpper(parts[1]) {
		case "ASC", "DESC":
			dir = strings.ToUpper(parts[1])
		default:
			return "", apperror.NewValidation("invalid order direction").
				WithDetail("direction", parts[1])
		}
	}

	return col + " " + dir, nil
}
