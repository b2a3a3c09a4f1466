// Package ledger provides the append-only financial transaction record.
// Transactions are created as a side effect of completed, paid orders
// and are never updated or deleted.
package ledger

import (
	"context"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// Type classifies a ledger entry.
type Type string

const (
	TypeSale     Type = "sale"
	TypeService  Type = "service"
	TypeRefund   Type = "refund"
	TypeExpense  Type = "expense"
	TypeTransfer Type = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeSale, TypeService, TypeRefund, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// Reference models a transaction can point back to.
const (
	RefSalesOrder   = "sales_order"
	RefServiceOrder = "service_order"
)

// Transaction is one immutable ledger entry. It deliberately carries no
// version or deletion mark: there is no update path.
type Transaction struct {
	ID     id.ID  `db:"id" json:"id"`
	Number string `db:"number" json:"number"`
	Type   Type   `db:"type" json:"type"`

	BranchID id.ID       `db:"branch_id" json:"branchId"`
	Amount   types.Money `db:"amount" json:"amount"`

	PaymentMethod types.PaymentMethod `db:"payment_method" json:"paymentMethod"`

	// Reference points back to the order that caused this entry.
	ReferenceModel string `db:"reference_model" json:"referenceModel"`
	ReferenceID    id.ID  `db:"reference_id" json:"referenceId"`

	Description string    `db:"description" json:"description,omitempty"`
	ProcessedBy string    `db:"processed_by" json:"processedBy"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// NewTransaction creates a ledger entry with a fresh ID and timestamp.
func NewTransaction(txType Type, branchID id.ID, amount types.Money) *Transaction {
	return &Transaction{
		ID:        id.New(),
		Type:      txType,
		BranchID:  branchID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks the entry before it is written.
func (t *Transaction) Validate(ctx context.Context) error {
	if !t.Type.Valid() {
		return apperror.NewValidation("unknown transaction type").
			WithDetail("field", "type").
			WithDetail("type", string(t.Type))
	}

	if id.IsNil(t.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if t.Amount.LessThan(types.Zero()) {
		return apperror.NewValidation("amount must not be negative").
			WithDetail("field", "amount")
	}

	if t.ReferenceModel == "" || id.IsNil(t.ReferenceID) {
		return apperror.NewValidation("reference is required").
			WithDetail("field", "reference")
	}

	return nil
}
