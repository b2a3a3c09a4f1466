package service_order

import (
	"context"
	"time"

	"garasi/internal/core/id"
	"garasi/internal/core/types"
	"garasi/internal/domain"
)

// Repository defines operations for service order documents.
type Repository interface {
	Create(ctx context.Context, doc *ServiceOrder) error
	GetByID(ctx context.Context, docID id.ID) (*ServiceOrder, error)
	GetByNumber(ctx context.Context, number string) (*ServiceOrder, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*ServiceOrder, error)
	Update(ctx context.Context, doc *ServiceOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetParts(ctx context.Context, docID id.ID) ([]PartLine, error)
	SaveParts(ctx context.Context, docID id.ID, parts []PartLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*ServiceOrder], error)
}

// ListFilter narrows service order listings.
type ListFilter struct {
	domain.ListFilter

	BranchID      *id.ID
	Status        *Status
	AssignedTo    *id.ID
	Priority      *Priority
	PaymentStatus *types.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}
