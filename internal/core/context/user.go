// Package context carries request-scoped identity and tracing values.
package context

import "context"

// UserContext is the authenticated caller as the auth middleware
// resolved it. Authorization decisions build an AccessScope from it;
// this struct just transports the claims.
type UserContext struct {
	UserID   string
	Email    string
	Name     string
	Roles    []string
	BranchID string
	IsAdmin  bool
}

type userContextKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns the authenticated user in ctx, or nil.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the caller's user ID, or "" when unauthenticated.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
