// Package auth provides authentication and authorization domain logic.
package auth

import (
	"context"

	"garasi/internal/core/id"
	"garasi/internal/core/security"
)

// UserRepository stores user accounts. Update applies optimistic
// locking on Version; Delete is a soft delete.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, userID id.ID) error
	List(ctx context.Context, filter UserFilter) ([]User, int, error)

	// Exists reports whether the email is already registered.
	Exists(ctx context.Context, email string) (bool, error)
}

// TokenRepository stores refresh tokens, keyed by token hash.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens deletes dead rows and returns how many went.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// UserFilter narrows List. Nil pointer fields are not applied.
type UserFilter struct {
	Search   string
	Role     *security.Role
	BranchID *id.ID
	IsActive *bool
	Limit    int
	Offset   int
}
