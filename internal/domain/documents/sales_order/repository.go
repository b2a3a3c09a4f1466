package sales_order

import (
	"context"
	"time"

	"garasi/internal/core/id"
	"garasi/internal/core/types"
	"garasi/internal/domain"
)

// Repository defines operations for sales order documents.
type Repository interface {
	Create(ctx context.Context, doc *SalesOrder) error
	GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error)
	GetByNumber(ctx context.Context, number string) (*SalesOrder, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesOrder, error)
	Update(ctx context.Context, doc *SalesOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetItems(ctx context.Context, docID id.ID) ([]OrderItem, error)
	SaveItems(ctx context.Context, docID id.ID, items []OrderItem) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error)
}

// ListFilter narrows sales order listings.
type ListFilter struct {
	domain.ListFilter

	BranchID      *id.ID
	Status        *Status
	PaymentStatus *types.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
}
