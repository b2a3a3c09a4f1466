package stock_transfer

import (
	"context"
	"time"

	"garasi/internal/core/id"
	"garasi/internal/domain"
)

// Repository defines operations for stock transfer documents.
type Repository interface {
	Create(ctx context.Context, doc *StockTransfer) error
	GetByID(ctx context.Context, docID id.ID) (*StockTransfer, error)
	GetByNumber(ctx context.Context, number string) (*StockTransfer, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*StockTransfer, error)
	Update(ctx context.Context, doc *StockTransfer) error
	Delete(ctx context.Context, docID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockTransfer], error)
}

// ListFilter narrows transfer listings.
type ListFilter struct {
	domain.ListFilter

	ProductID    *id.ID
	FromBranchID *id.ID
	ToBranchID   *id.ID

	// BranchID matches transfers where the branch is either side.
	BranchID *id.ID

	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}
