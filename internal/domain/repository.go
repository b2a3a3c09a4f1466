// Package domain holds the shared service and repository contracts the
// catalog, register and document packages build on.
package domain

import (
	"context"

	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/domain/filter"
)

// ListFilter is the common shape of list queries.
type ListFilter struct {
	// Search matches name or code, case-insensitive.
	Search string

	// IDs restricts the result to specific identifiers.
	IDs []id.ID

	// IncludeDeleted also returns soft-deleted rows.
	IncludeDeleted bool

	// AdvancedFilters holds field conditions built from query params.
	AdvancedFilters []filter.Item

	// OrderBy names a whitelisted column, "-" prefix for descending.
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns the paging defaults list endpoints use.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// ListResult is one page of items plus the unpaged count.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// CatalogRepository is the persistence contract catalog services run
// against. Update uses optimistic locking; Delete removes the row, so
// most callers want SetDeletionMark instead.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	GetByCode(ctx context.Context, code string) (T, error)
	Update(ctx context.Context, entity T) error
	Delete(ctx context.Context, id id.ID) error
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (ListResult[T], error)
	Exists(ctx context.Context, id id.ID) (bool, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// HookEvent names a lifecycle point in the generic catalog service.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"
)

// Hook runs at a lifecycle point. A non-nil error aborts the operation
// and rolls back its transaction.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry keeps the hooks a concrete service registered on its
// generic base.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers hook for event. Hooks run in registration order.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes the hooks registered for event, stopping at the first
// error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}
