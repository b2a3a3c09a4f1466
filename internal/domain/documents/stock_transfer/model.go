// Package stock_transfer provides the StockTransfer document: movement of
// a quantity of one product from a source branch to a destination branch.
package stock_transfer

import (
	"context"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
)

// Status is the transfer lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInTransit Status = "in_transit"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the allowed state machine. Terminal states have no
// outgoing edges; cancellation is reachable from pending and in-transit
// only.
var transitions = map[Status][]Status{
	StatusPending:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// StockTransfer moves one product between two branches. The source
// branch's stock is reserved for the whole pending/in-transit window and
// only deducted at completion.
type StockTransfer struct {
	entity.Document

	ProductID    id.ID `db:"product_id" json:"productId"`
	FromBranchID id.ID `db:"from_branch_id" json:"fromBranchId"`
	ToBranchID   id.ID `db:"to_branch_id" json:"toBranchId"`

	Quantity int64  `db:"quantity" json:"quantity"`
	Status   Status `db:"status" json:"status"`

	InitiatedBy string  `db:"initiated_by" json:"initiatedBy"`
	ApprovedBy  *string `db:"approved_by" json:"approvedBy,omitempty"`
	ReceivedBy  *string `db:"received_by" json:"receivedBy,omitempty"`

	ShippedAt  *time.Time `db:"shipped_at" json:"shippedAt,omitempty"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`
}

// NewStockTransfer creates a pending transfer.
func NewStockTransfer(productID, fromBranchID, toBranchID id.ID, quantity int64, initiatedBy string) *StockTransfer {
	return &StockTransfer{
		Document:     entity.NewDocument(),
		ProductID:    productID,
		FromBranchID: fromBranchID,
		ToBranchID:   toBranchID,
		Quantity:     quantity,
		Status:       StatusPending,
		InitiatedBy:  initiatedBy,
	}
}

// Validate implements entity.Validatable.
func (t *StockTransfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	if id.IsNil(t.FromBranchID) {
		return apperror.NewValidation("source branch is required").
			WithDetail("field", "fromBranchId")
	}

	if id.IsNil(t.ToBranchID) {
		return apperror.NewValidation("destination branch is required").
			WithDetail("field", "toBranchId")
	}

	if t.FromBranchID == t.ToBranchID {
		return apperror.NewValidation("source and destination branches must differ").
			WithDetail("field", "toBranchId")
	}

	if t.Quantity < 1 {
		return apperror.NewValidation("quantity must be at least 1").
			WithDetail("field", "quantity")
	}

	if !t.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("status", string(t.Status))
	}

	return nil
}

// CanTransition returns InvalidTransitionError unless the move from the
// current status to target is allowed.
func (t *StockTransfer) CanTransition(target Status) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("status", string(target))
	}
	if !t.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransition("stock_transfer", string(t.Status), string(target))
	}
	return nil
}

var _ entity.Validatable = (*StockTransfer)(nil)
