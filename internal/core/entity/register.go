package entity

import (
	"time"

	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// StockRecord is one row of the stock ledger: the on-hand state of a
// product at a branch. Exactly one record exists per (product, branch)
// pair. Records are never hard-deleted; absence means zero stock.
type StockRecord struct {
	ProductID id.ID `db:"product_id" json:"productId"`
	BranchID  id.ID `db:"branch_id" json:"branchId"`

	// Quantity is the physical on-hand quantity
	Quantity int64 `db:"quantity" json:"quantity"`

	// ReservedQuantity is held for in-flight orders and transfers.
	// Always 0 <= ReservedQuantity <= Quantity.
	ReservedQuantity int64 `db:"reserved_quantity" json:"reservedQuantity"`

	// CostPrice is branch-specific purchase cost
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// SellingPrice is branch-specific selling price.
	// Order lines snapshot this, not the catalog price.
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// ReorderPoint triggers the low-stock flag when quantity falls to it
	ReorderPoint int64 `db:"reorder_point" json:"reorderPoint"`

	// ReorderQuantity is the suggested restock amount
	ReorderQuantity int64 `db:"reorder_quantity" json:"reorderQuantity"`

	// Location is free-text shelf/bin placement within the branch
	Location *string `db:"location" json:"location,omitempty"`

	LastRestockedAt *time.Time `db:"last_restocked_at" json:"lastRestockedAt,omitempty"`
	LastRestockedBy *string    `db:"last_restocked_by" json:"lastRestockedBy,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewStockRecord creates a stock record for a (product, branch) pair.
func NewStockRecord(productID, branchID id.ID) *StockRecord {
	now := time.Now().UTC()
	return &StockRecord{
		ProductID:    productID,
		BranchID:     branchID,
		CostPrice:    types.Zero(),
		SellingPrice: types.Zero(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AvailableQuantity is what new reservations may draw against,
// derived and never stored.
func (r *StockRecord) AvailableQuantity() int64 {
	avail := r.Quantity - r.ReservedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

// HasSufficient reports whether qty can still be reserved.
func (r *StockRecord) HasSufficient(qty int64) bool {
	return r.Quantity-r.ReservedQuantity >= qty
}

// IsLowStock reports whether quantity has fallen to the reorder point.
func (r *StockRecord) IsLowStock() bool {
	return r.Quantity <= r.ReorderPoint
}

// IsOutOfStock reports whether nothing is on hand.
func (r *StockRecord) IsOutOfStock() bool {
	return r.Quantity == 0
}
