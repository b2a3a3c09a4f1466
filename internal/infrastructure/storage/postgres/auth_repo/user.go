// Package auth_repo provides the PostgreSQL side of the auth domain:
// user accounts and refresh tokens.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
	"garasi/internal/domain/auth"
	"garasi/internal/infrastructure/storage/postgres"
)

var userColumns = []string{
	"id", "email", "password_hash", "name", "role", "branch_id",
	"is_active", "is_admin", "last_login_at",
	"failed_login_attempts", "locked_until",
	"created_at", "updated_at", "deleted_at", "version",
}

// UserRepo implements auth.UserRepository against the users table.
// Soft-deleted rows are invisible to every read.
type UserRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(userColumns...).
		From("users").
		Where("deleted_at IS NULL")
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	query, args, err := r.builder.
		Insert("users").
		Columns("id", "email", "password_hash", "name", "role", "branch_id",
			"is_active", "is_admin", "failed_login_attempts",
			"created_at", "updated_at", "version").
		Values(user.ID, user.Email, user.PasswordHash, user.Name, user.Role, user.BranchID,
			user.IsActive, user.IsAdmin, user.FailedLoginAttempts,
			user.CreatedAt, user.UpdatedAt, user.Version).
		ToSql()
	if err != nil {
		return fmt.Errorf("build user insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": userID}, userID.String())
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) getOne(ctx context.Context, cond squirrel.Eq, key string) (*auth.User, error) {
	query, args, err := r.baseSelect().Where(cond).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user select: %w", err)
	}

	var user auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", key)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Update writes mutable fields under optimistic locking. The version
// check makes stale writes fail instead of clobbering.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	query, args, err := r.builder.
		Update("users").
		Set("password_hash", user.PasswordHash).
		Set("name", user.Name).
		Set("role", user.Role).
		Set("branch_id", user.BranchID).
		Set("is_active", user.IsActive).
		Set("is_admin", user.IsAdmin).
		Set("last_login_at", user.LastLoginAt).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": user.ID, "version": user.Version}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID)
	}

	user.Version++
	return nil
}

// Delete soft-deletes and deactivates in one statement.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	query, args, err := r.builder.
		Update("users").
		Set("deleted_at", squirrel.Expr("now()")).
		Set("is_active", false).
		Where(squirrel.Eq{"id": userID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build user delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}
	return nil
}

// applyUserFilter adds the filter's conditions to a select builder.
func applyUserFilter(q squirrel.SelectBuilder, f auth.UserFilter) squirrel.SelectBuilder {
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("(email ILIKE ? OR name ILIKE ?)", pattern, pattern)
	}
	if f.Role != nil {
		q = q.Where(squirrel.Eq{"role": string(*f.Role)})
	}
	if f.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *f.BranchID})
	}
	if f.IsActive != nil {
		q = q.Where(squirrel.Eq{"is_active": *f.IsActive})
	}
	return q
}

// List returns users matching the filter plus the unpaginated total.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	q := applyUserFilter(r.baseSelect(), filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	q = q.OrderBy("name ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build user select: %w", err)
	}

	var users []auth.User
	if err := pgxscan.Select(ctx, querier, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	return users, total, nil
}

// Exists reports whether the email is already registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

var _ auth.UserRepository = (*UserRepo)(nil)
