package ledger

import (
	"context"
	"time"

	"garasi/internal/core/id"
	"garasi/internal/domain"
)

// Repository defines the ledger's storage operations. There is no
// update or delete: the ledger only grows.
type Repository interface {
	Create(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, txID id.ID) (*Transaction, error)
	GetByNumber(ctx context.Context, number string) (*Transaction, error)

	// GetByReference returns all entries pointing at one source
	// document, oldest first.
	GetByReference(ctx context.Context, model string, refID id.ID) ([]*Transaction, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transaction], error)
}

// ListFilter narrows ledger listings.
type ListFilter struct {
	domain.ListFilter

	BranchID *id.ID
	Type     *Type
	DateFrom *time.Time
	DateTo   *time.Time
}
