package reports

import (
	"context"

	"garasi/internal/core/id"
)

// Repository defines report data access.
type Repository interface {
	// GetLowStock returns records at or below their reorder point.
	GetLowStock(ctx context.Context, filter LowStockFilter) (*LowStockReport, error)

	// GetStockValue returns per-branch inventory value rows. A nil
	// branchID covers all branches.
	GetStockValue(ctx context.Context, branchID *id.ID) ([]StockValueRow, error)
}
