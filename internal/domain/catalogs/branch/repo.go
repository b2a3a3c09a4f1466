package branch

import (
	"context"

	"garasi/internal/domain"
)

// Repository defines the interface for Branch persistence.
type Repository interface {
	domain.CatalogRepository[*Branch]

	// ListActive retrieves all operational branches.
	ListActive(ctx context.Context) ([]*Branch, error)
}
