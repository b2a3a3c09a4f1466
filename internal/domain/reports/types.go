// Package reports provides read-only reporting over stock and catalogs.
// Reports join registers with catalog names in SQL; nothing here writes.
package reports

import (
	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// --- Low Stock Report ---

// LowStockFilter narrows the low stock report.
type LowStockFilter struct {
	// BranchID limits the report to one branch.
	BranchID *id.ID

	// Pagination
	Limit  int
	Offset int
}

// LowStockItem is one understocked (product, branch) pair.
type LowStockItem struct {
	ProductID       id.ID  `db:"product_id" json:"productId"`
	SKU             string `db:"sku" json:"sku"`
	ProductName     string `db:"product_name" json:"productName"`
	BranchID        id.ID  `db:"branch_id" json:"branchId"`
	BranchName      string `db:"branch_name" json:"branchName"`
	Quantity        int64  `db:"quantity" json:"quantity"`
	Reserved        int64  `db:"reserved_quantity" json:"reservedQuantity"`
	Available       int64  `db:"available_quantity" json:"availableQuantity"`
	ReorderPoint    int64  `db:"reorder_point" json:"reorderPoint"`
	ReorderQuantity int64  `db:"reorder_quantity" json:"reorderQuantity"`
}

// LowStockReport lists records at or below their reorder point.
type LowStockReport struct {
	Items      []LowStockItem `json:"items"`
	TotalCount int64          `json:"totalCount"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
}

// --- Stock Value Report ---

// StockValueRow aggregates one branch's inventory value.
type StockValueRow struct {
	BranchID      id.ID  `db:"branch_id" json:"branchId"`
	BranchName    string `db:"branch_name" json:"branchName"`
	ProductCount  int64  `db:"product_count" json:"productCount"`
	TotalQuantity int64  `db:"total_quantity" json:"totalQuantity"`

	// CostValue is quantity * cost_price summed over the branch.
	CostValue types.Money `db:"cost_value" json:"costValue"`

	// RetailValue is quantity * selling_price summed over the branch.
	RetailValue types.Money `db:"retail_value" json:"retailValue"`
}

// StockValueReport sums inventory value per branch.
type StockValueReport struct {
	Branches    []StockValueRow `json:"branches"`
	TotalCost   types.Money     `json:"totalCostValue"`
	TotalRetail types.Money     `json:"totalRetailValue"`
}
