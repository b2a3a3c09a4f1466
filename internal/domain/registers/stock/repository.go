// Package stock provides the per-branch stock ledger.
package stock

import (
	"context"
	"time"

	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// Repository defines operations for the stock ledger.
//
// Reserve and Deduct are guarded single-statement updates: the
// sufficiency check and the write happen in one round trip so
// concurrent callers cannot both pass a stale check.
type Repository interface {
	// Get returns the record for (product, branch), NotFound error if absent.
	Get(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)

	// GetOrNull returns the record or nil if absent (absence = zero stock).
	GetOrNull(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)

	// GetForUpdate returns the record with a row lock, NotFound if absent.
	GetForUpdate(ctx context.Context, productID, branchID id.ID) (*entity.StockRecord, error)

	// Upsert inserts the record or overwrites all mutable columns.
	// Callers must hold the row lock (GetForUpdate) for existing rows.
	Upsert(ctx context.Context, record *entity.StockRecord) error

	// UpsertRestock adds inbound quantity in a single statement. The
	// conflict arm is additive and overwrites only the provided optional
	// fields, so two concurrent deliveries both land even when they race
	// on creating the record. Returns the resulting record.
	UpsertRestock(ctx context.Context, w RestockWrite) (*entity.StockRecord, error)

	// AddQuantity increments quantity in a single additive statement,
	// used for transfer-inbound stock. A record created by this call
	// takes the insert defaults; an existing record keeps its own
	// pricing and reorder settings.
	AddQuantity(ctx context.Context, w AddWrite) error

	// Reserve atomically increments reserved_quantity by qty if
	// quantity - reserved_quantity >= qty. Returns false when the guard
	// fails or no record exists.
	Reserve(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error)

	// Release decrements reserved_quantity by qty, clamped at 0.
	// Missing records are a no-op.
	Release(ctx context.Context, productID, branchID id.ID, qty int64) error

	// Deduct atomically decrements quantity by qty and clears the matching
	// reservation if quantity >= qty. Returns false when the guard fails
	// or no record exists.
	Deduct(ctx context.Context, productID, branchID id.ID, qty int64) (bool, error)

	// List returns records matching the filter plus the unpaginated total.
	List(ctx context.Context, f Filter) ([]*entity.StockRecord, int64, error)

	// ListByProduct returns all records for a product across branches.
	ListByProduct(ctx context.Context, productID id.ID) ([]*entity.StockRecord, error)
}

// RestockWrite is the payload for UpsertRestock. Insert* fields apply
// only when the statement creates the record; the optional pointers
// overwrite stored values on both arms when non-nil.
type RestockWrite struct {
	ProductID     id.ID
	BranchID      id.ID
	QuantityDelta int64

	InsertCostPrice    types.Money
	InsertSellingPrice types.Money

	CostPrice       *types.Money
	SellingPrice    *types.Money
	ReorderPoint    *int64
	ReorderQuantity *int64
	Location        *string

	RestockedAt time.Time
	RestockedBy *string
}

// AddWrite is the payload for AddQuantity. Insert* fields seed a record
// created by the statement, typically inherited from the sending branch.
type AddWrite struct {
	ProductID id.ID
	BranchID  id.ID
	Quantity  int64

	InsertCostPrice       types.Money
	InsertSellingPrice    types.Money
	InsertReorderPoint    int64
	InsertReorderQuantity int64

	ReceivedAt time.Time
	ReceivedBy *string
}

// Filter narrows stock listings.
type Filter struct {
	BranchID  *id.ID
	ProductID *id.ID

	// LowStock selects records with quantity <= reorder_point
	LowStock bool

	// OutOfStock selects records with quantity == 0
	OutOfStock bool

	// Search matches the product's name or SKU
	Search string

	Limit  int
	Offset int
}

// BranchStock is one branch's slice of a product summary.
type BranchStock struct {
	BranchID     id.ID       `json:"branchId"`
	Quantity     int64       `json:"quantity"`
	Reserved     int64       `json:"reservedQuantity"`
	Available    int64       `json:"availableQuantity"`
	CostPrice    types.Money `json:"costPrice"`
	SellingPrice types.Money `json:"sellingPrice"`
	Location     *string     `json:"location,omitempty"`
}

// Summary aggregates one product's stock across all branches.
type Summary struct {
	ProductID      id.ID         `json:"productId"`
	TotalQuantity  int64         `json:"totalQuantity"`
	TotalReserved  int64         `json:"totalReserved"`
	TotalAvailable int64         `json:"totalAvailable"`
	Branches       []BranchStock `json:"branches"`
}

// EventPublisher pushes stock-changed notifications out of the write
// path so cached read views can be invalidated.
type EventPublisher interface {
	StockChanged(ctx context.Context, productID, branchID id.ID) error
}

// NopPublisher discards events. Useful in tests.
type NopPublisher struct{}

// StockChanged implements EventPublisher.
func (NopPublisher) StockChanged(ctx context.Context, productID, branchID id.ID) error {
	return nil
}
