// Package sales_order provides the SalesOrder document: a customer
// purchase at one branch, with stock reserved at creation and deducted
// at completion.
package sales_order

import (
	"context"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
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

// OrderItem is one sold line. SKU, name and unit price are snapshots
// taken at order creation; the unit price comes from the branch's stock
// record, not the product catalog, so each branch sells at its own
// price.
type OrderItem struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku,omitempty"`
	Name      string `db:"name" json:"name"`

	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
	Discount  types.Money `db:"discount" json:"discount"`
	Total     types.Money `db:"total" json:"total"`
}

// SalesOrder is a customer purchase transaction.
type SalesOrder struct {
	entity.Document

	BranchID id.ID `db:"branch_id" json:"branchId"`

	CustomerName    string  `db:"customer_name" json:"customerName"`
	CustomerPhone   *string `db:"customer_phone" json:"customerPhone,omitempty"`
	CustomerEmail   *string `db:"customer_email" json:"customerEmail,omitempty"`
	CustomerAddress *string `db:"customer_address" json:"customerAddress,omitempty"`

	Subtotal  types.Money `db:"subtotal" json:"subtotal"`
	TaxRate   types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount types.Money `db:"tax_amount" json:"taxAmount"`
	Discount  types.Money `db:"discount" json:"discount"`
	Total     types.Money `db:"total" json:"total"`

	PaymentMethod types.PaymentMethod `db:"payment_method" json:"paymentMethod"`
	AmountPaid    types.Money         `db:"amount_paid" json:"amountPaid"`
	Change        types.Money         `db:"change_due" json:"change"`
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaidAt        *time.Time          `db:"paid_at" json:"paidAt,omitempty"`

	Status      Status     `db:"status" json:"status"`
	ProcessedBy string     `db:"processed_by" json:"processedBy"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []OrderItem `db:"-" json:"items"`
}

// NewSalesOrder creates a pending order for a branch.
func NewSalesOrder(branchID id.ID, customerName string) *SalesOrder {
	return &SalesOrder{
		Document:      entity.NewDocument(),
		BranchID:      branchID,
		CustomerName:  customerName,
		Status:        StatusPending,
		PaymentMethod: types.PaymentCash,
		PaymentStatus: types.PaymentPending,
		Subtotal:      types.Zero(),
		TaxRate:       types.Zero(),
		TaxAmount:     types.Zero(),
		Discount:      types.Zero(),
		Total:         types.Zero(),
		AmountPaid:    types.Zero(),
		Change:        types.Zero(),
		Items:         make([]OrderItem, 0),
	}
}

// AddItem appends a line with snapshotted identity and price, then
// recomputes the order totals.
func (o *SalesOrder) AddItem(productID id.ID, sku, name string, quantity int64, unitPrice, discount types.Money) {
	line := OrderItem{
		LineID:    id.New(),
		LineNo:    len(o.Items) + 1,
		ProductID: productID,
		SKU:       sku,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Discount:  discount,
		Total:     types.MulInt(unitPrice, quantity).Sub(discount),
	}

	o.Items = append(o.Items, line)
	o.Recalculate()
}

// Recalculate recomputes all derived amounts from the items and the
// current payment input:
//
//	subtotal   = sum of line totals
//	tax amount = subtotal * tax rate
//	total      = subtotal + tax amount - discount
//	change     = max(0, amount paid - total)
//
// Payment status follows from amount paid vs total; the paid timestamp
// is stamped when the order first reaches paid and kept thereafter.
func (o *SalesOrder) Recalculate() {
	subtotal := types.Zero()
	for i := range o.Items {
		item := &o.Items[i]
		item.Total = types.MulInt(item.UnitPrice, item.Quantity).Sub(item.Discount)
		subtotal = subtotal.Add(item.Total)
	}

	o.Subtotal = subtotal
	o.TaxAmount = subtotal.Mul(o.TaxRate)
	o.Total = subtotal.Add(o.TaxAmount).Sub(o.Discount)
	o.Change = types.ChangeDue(o.AmountPaid, o.Total)

	o.PaymentStatus = types.DerivePaymentStatus(o.AmountPaid, o.Total)
	if o.PaymentStatus == types.PaymentPaid && o.PaidAt == nil {
		now := time.Now().UTC()
		o.PaidAt = &now
	}
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if o.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}

	if len(o.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	if !o.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("method", string(o.PaymentMethod))
	}

	if o.TaxRate.LessThan(types.Zero()) {
		return apperror.NewValidation("tax rate must not be negative").
			WithDetail("field", "taxRate")
	}

	if o.Discount.LessThan(types.Zero()) {
		return apperror.NewValidation("discount must not be negative").
			WithDetail("field", "discount")
	}

	if o.AmountPaid.LessThan(types.Zero()) {
		return apperror.NewValidation("amount paid must not be negative").
			WithDetail("field", "amountPaid")
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity < 1 {
			return apperror.NewValidation("quantity must be at least 1").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.UnitPrice.LessThan(types.Zero()) {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Discount.LessThan(types.Zero()) {
			return apperror.NewValidation("line discount must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Discount.GreaterThan(types.MulInt(item.UnitPrice, item.Quantity)) {
			return apperror.NewValidation("line discount exceeds line amount").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	if !o.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("status", string(o.Status))
	}

	return nil
}

// CanTransition returns InvalidTransitionError unless the move from the
// current status to target is allowed.
func (o *SalesOrder) CanTransition(target Status) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("status", string(target))
	}
	if !o.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransition("sales_order", string(o.Status), string(target))
	}
	return nil
}

var _ entity.Validatable = (*SalesOrder)(nil)
