// Package service_order provides the ServiceOrder document: a workshop
// job at one branch, optionally assigned to a mechanic. Parts are never
// reserved up front; sufficiency is checked when the parts list changes
// and enforced again by the deduction guard at completion.
package service_order

import (
	"context"
	"time"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/id"
	"garasi/internal/core/types"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusScheduled, StatusCancelled},
	StatusScheduled:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
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

// Priority orders the workshop queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// PartLine is one part consumed by the job. Same snapshot rules as
// sales order items: SKU, name and unit price are captured from the
// branch's stock record when the parts list is saved.
type PartLine struct {
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

// ServiceOrder is a workshop job.
type ServiceOrder struct {
	entity.Document

	BranchID id.ID `db:"branch_id" json:"branchId"`

	CustomerName  string `db:"customer_name" json:"customerName"`
	CustomerPhone string `db:"customer_phone" json:"customerPhone"`

	VehicleMake    *string `db:"vehicle_make" json:"vehicleMake,omitempty"`
	VehicleModel   *string `db:"vehicle_model" json:"vehicleModel,omitempty"`
	VehicleYear    *int    `db:"vehicle_year" json:"vehicleYear,omitempty"`
	VehiclePlate   *string `db:"vehicle_plate" json:"vehiclePlate,omitempty"`
	VehicleMileage *int64  `db:"vehicle_mileage" json:"vehicleMileage,omitempty"`

	AssignedTo  *id.ID  `db:"assigned_to" json:"assignedTo,omitempty"`
	Description string  `db:"description" json:"description"`
	Diagnosis   *string `db:"diagnosis" json:"diagnosis,omitempty"`

	LaborCost    types.Money `db:"labor_cost" json:"laborCost"`
	OtherCharges types.Money `db:"other_charges" json:"otherCharges"`
	TotalParts   types.Money `db:"total_parts" json:"totalParts"`
	TotalAmount  types.Money `db:"total_amount" json:"totalAmount"`

	Priority Priority `db:"priority" json:"priority"`

	PaymentMethod types.PaymentMethod `db:"payment_method" json:"paymentMethod"`
	AmountPaid    types.Money         `db:"amount_paid" json:"amountPaid"`
	Change        types.Money         `db:"change_due" json:"change"`
	PaymentStatus types.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaidAt        *time.Time          `db:"paid_at" json:"paidAt,omitempty"`

	Status      Status     `db:"status" json:"status"`
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduledAt,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Parts []PartLine `db:"-" json:"partsUsed"`
}

// NewServiceOrder creates a pending job for a branch.
func NewServiceOrder(branchID id.ID, customerName, customerPhone, description string) *ServiceOrder {
	return &ServiceOrder{
		Document:      entity.NewDocument(),
		BranchID:      branchID,
		CustomerName:  customerName,
		CustomerPhone: customerPhone,
		Description:   description,
		Priority:      PriorityNormal,
		Status:        StatusPending,
		PaymentMethod: types.PaymentCash,
		PaymentStatus: types.PaymentPending,
		LaborCost:     types.Zero(),
		OtherCharges:  types.Zero(),
		TotalParts:    types.Zero(),
		TotalAmount:   types.Zero(),
		AmountPaid:    types.Zero(),
		Change:        types.Zero(),
		Parts:         make([]PartLine, 0),
	}
}

// AssignMechanic sets the assignee. A pending job moves to scheduled
// and the schedule timestamp is stamped on first assignment.
func (o *ServiceOrder) AssignMechanic(mechanicID id.ID) {
	o.AssignedTo = &mechanicID
	if o.Status == StatusPending {
		o.Status = StatusScheduled
	}
	if o.ScheduledAt == nil {
		now := time.Now().UTC()
		o.ScheduledAt = &now
	}
}

// SetParts replaces the parts list and renumbers the lines.
func (o *ServiceOrder) SetParts(parts []PartLine) {
	for i := range parts {
		if id.IsNil(parts[i].LineID) {
			parts[i].LineID = id.New()
		}
		parts[i].LineNo = i + 1
	}
	o.Parts = parts
	o.Recalculate()
}

// Recalculate recomputes all derived amounts:
//
//	parts total  = sum of part line totals
//	total amount = parts total + labor cost + other charges
//	change       = max(0, amount paid - total amount)
//
// Payment status follows from amount paid vs total amount; the paid
// timestamp is stamped when the job first reaches paid.
func (o *ServiceOrder) Recalculate() {
	totalParts := types.Zero()
	for i := range o.Parts {
		part := &o.Parts[i]
		part.Total = types.MulInt(part.UnitPrice, part.Quantity).Sub(part.Discount)
		totalParts = totalParts.Add(part.Total)
	}

	o.TotalParts = totalParts
	o.TotalAmount = totalParts.Add(o.LaborCost).Add(o.OtherCharges)
	o.Change = types.ChangeDue(o.AmountPaid, o.TotalAmount)

	o.PaymentStatus = types.DerivePaymentStatus(o.AmountPaid, o.TotalAmount)
	if o.PaymentStatus == types.PaymentPaid && o.PaidAt == nil {
		now := time.Now().UTC()
		o.PaidAt = &now
	}
}

// Validate implements entity.Validatable.
func (o *ServiceOrder) Validate(ctx context.Context) error {
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

	if o.CustomerPhone == "" {
		return apperror.NewValidation("customer phone is required").
			WithDetail("field", "customerPhone")
	}

	if o.Description == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}

	if !o.Priority.Valid() {
		return apperror.NewValidation("unknown priority").
			WithDetail("field", "priority").
			WithDetail("priority", string(o.Priority))
	}

	if !o.PaymentMethod.Valid() {
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("method", string(o.PaymentMethod))
	}

	if o.LaborCost.LessThan(types.Zero()) {
		return apperror.NewValidation("labor cost must not be negative").
			WithDetail("field", "laborCost")
	}

	if o.OtherCharges.LessThan(types.Zero()) {
		return apperror.NewValidation("other charges must not be negative").
			WithDetail("field", "otherCharges")
	}

	if o.AmountPaid.LessThan(types.Zero()) {
		return apperror.NewValidation("amount paid must not be negative").
			WithDetail("field", "amountPaid")
	}

	for i, part := range o.Parts {
		if id.IsNil(part.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "partsUsed").
				WithDetail("lineNo", i+1)
		}
		if part.Quantity < 1 {
			return apperror.NewValidation("quantity must be at least 1").
				WithDetail("field", "partsUsed").
				WithDetail("lineNo", i+1)
		}
		if part.UnitPrice.LessThan(types.Zero()) {
			return apperror.NewValidation("unit price must not be negative").
				WithDetail("field", "partsUsed").
				WithDetail("lineNo", i+1)
		}
		if part.Discount.LessThan(types.Zero()) {
			return apperror.NewValidation("line discount must not be negative").
				WithDetail("field", "partsUsed").
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
func (o *ServiceOrder) CanTransition(target Status) error {
	if !target.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("status", string(target))
	}
	if !o.Status.CanTransitionTo(target) {
		return apperror.NewInvalidTransition("service_order", string(o.Status), string(target))
	}
	return nil
}

var _ entity.Validatable = (*ServiceOrder)(nil)
