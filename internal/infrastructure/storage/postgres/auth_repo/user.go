// Package auth_repo provides PostgreSQL persistence for users.
package auth_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain/auth"
	"stockbooks/internal/infrastructure/storage/postgres"
)

const userTable = "sys_users"

// Compile-time check that UserRepo implements auth.UserRepository.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository on top of PostgreSQL.
type UserRepo struct {
	txManager *postgres.TxManager
	columns   []string
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txManager *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txManager: txManager,
		columns:   postgres.ExtractDBColumns[auth.User](),
	}
}

func (r *UserRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	values := postgres.StructToMap(u)
	if len(values) == 0 {
		return fmt.Errorf("no db tags found in user")
	}

	query, args, err := r.builder().
		Insert(userTable).
		SetMap(values).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Update saves the user. Password, lockout counters and login timestamps
// all go through here.
func (r *UserRepo) Update(ctx context.Context, u *auth.User) error {
	u.UpdatedAt = time.Now()

	values := postgres.StructToMap(u)
	if len(values) == 0 {
		return fmt.Errorf("no db tags found in user")
	}
	delete(values, "id")
	delete(values, "created_at")

	query, args, err := r.builder().
		Update(userTable).
		SetMap(values).
		Where(squirrel.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("user", u.ID)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID)
}

// GetByEmail retrieves a user by email, case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"lower(email)": strings.ToLower(email)}, email)
}

func (r *UserRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*auth.User, error) {
	query, args, err := r.builder().
		Select(r.columns...).
		From(userTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &u, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Exists reports whether a user with the email is already registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sys_users WHERE lower(email) = lower($1))`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}
