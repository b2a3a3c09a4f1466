// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"

	"garasi/internal/core/apperror"
	appctx "garasi/internal/core/context"
)

// Role defines the user roles recognized by the system.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleSalesperson Role = "salesperson"
	RoleMechanic    Role = "mechanic"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleSalesperson, RoleMechanic:
		return true
	}
	return false
}

// AccessScope defines the boundaries of data visibility for current request.
// Branch is the unit of isolation: non-admin users act only within their
// home branch. The scope also feeds consistent logging/audit context.
type AccessScope struct {
	// UserID is the authenticated user
	UserID string

	// Email of the authenticated user (for audit entries)
	Email string

	// BranchID is the user's home branch
	BranchID string

	// Roles assigned to the user
	Roles []string

	// IsAdmin bypasses branch scoping
	IsAdmin bool
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		UserID:   user.UserID,
		Email:    user.Email,
		BranchID: user.BranchID,
		Roles:    user.Roles,
		IsAdmin:  user.IsAdmin,
	}
}

// CanAccessBranch checks if user can operate on the given branch.
func (s *AccessScope) CanAccessBranch(branchID string) bool {
	if s.IsAdmin {
		return true
	}
	return s.BranchID != "" && s.BranchID == branchID
}

// RequireBranch returns ForbiddenError if the branch is outside the scope.
func (s *AccessScope) RequireBranch(branchID string) error {
	if !s.CanAccessBranch(branchID) {
		return apperror.NewForbidden("operation not permitted for this branch").
			WithDetail("branch_id", branchID)
	}
	return nil
}

// HasRole checks if the scope carries the given role.
// Admin implicitly satisfies every role check.
func (s *AccessScope) HasRole(role Role) bool {
	if s.IsAdmin {
		return true
	}
	for _, r := range s.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}

// RequireRole returns error if the role is missing.
func (s *AccessScope) RequireRole(role Role) error {
	if !s.HasRole(role) {
		return apperror.NewForbidden(
			fmt.Sprintf("role %s required", role),
		).WithDetail("role", role)
	}
	return nil
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
