package entity

import (
	"context"
	"time"

	"garasi/internal/core/apperror"
)

// Document is the base type for business transactions.
// Examples: StockTransfer, SalesOrder, ServiceOrder.
//
// Each concrete document carries its own status enum and state machine;
// the base only holds the fields shared by every document kind.
type Document struct {
	BaseDocument

	// Number comes from the numerator on first save, unique per
	// document type.
	Number string `db:"number" json:"number"`

	// Date is the business date, not the insert time.
	Date time.Time `db:"date" json:"date"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document with generated ID and current date.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate checks the shared document fields.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}
