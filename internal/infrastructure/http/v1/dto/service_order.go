package dto

import (
	"garasi/internal/core/types"
	"garasi/internal/domain/documents/service_order"
)

// --- Request DTOs ---

// CreateServiceOrderRequest opens a workshop job at one branch.
type CreateServiceOrderRequest struct {
	BranchID string `json:"branchId" binding:"required"`

	CustomerName  string `json:"customerName" binding:"required"`
	CustomerPhone string `json:"customerPhone" binding:"required"`

	VehicleMake    *string `json:"vehicleMake"`
	VehicleModel   *string `json:"vehicleModel"`
	VehicleYear    *int    `json:"vehicleYear"`
	VehiclePlate   *string `json:"vehiclePlate"`
	VehicleMileage *int64  `json:"vehicleMileage"`

	Description string                 `json:"description" binding:"required"`
	Priority    service_order.Priority `json:"priority"`
	AssignedTo  string                 `json:"assignedTo"`

	Notes string `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *CreateServiceOrderRequest) ToInput(actorID string) (service_order.CreateInput, error) {
	branchID, err := parseID(r.BranchID, "branchId")
	if err != nil {
		return service_order.CreateInput{}, err
	}
	assignedTo, err := parseOptionalID(r.AssignedTo, "assignedTo")
	if err != nil {
		return service_order.CreateInput{}, err
	}

	return service_order.CreateInput{
		BranchID:       branchID,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		VehicleMake:    r.VehicleMake,
		VehicleModel:   r.VehicleModel,
		VehicleYear:    r.VehicleYear,
		VehiclePlate:   r.VehiclePlate,
		VehicleMileage: r.VehicleMileage,
		Description:    r.Description,
		Priority:       r.Priority,
		AssignedTo:     assignedTo,
		Notes:          r.Notes,
		ActorID:        actorID,
	}, nil
}

// ServiceOrderStatusRequest advances the job lifecycle.
type ServiceOrderStatusRequest struct {
	Status service_order.Status `json:"status" binding:"required"`
}

// AssignMechanicRequest assigns a mechanic to the job.
type AssignMechanicRequest struct {
	MechanicID string `json:"mechanicId" binding:"required"`
}

// PartRequest is one requested part line. Identity and price are
// snapshotted server-side from the branch stock record.
type PartRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	Discount  types.Money `json:"discount"`
}

// UpdatePartsRequest replaces the job's parts list.
type UpdatePartsRequest struct {
	Parts []PartRequest `json:"parts" binding:"dive"`
}

// ToInputs converts the request to domain part inputs.
func (r *UpdatePartsRequest) ToInputs() ([]service_order.PartInput, error) {
	parts := make([]service_order.PartInput, 0, len(r.Parts))
	for _, part := range r.Parts {
		productID, err := parseID(part.ProductID, "parts.productId")
		if err != nil {
			return nil, err
		}
		parts = append(parts, service_order.PartInput{
			ProductID: productID,
			Quantity:  part.Quantity,
			Discount:  part.Discount,
		})
	}
	return parts, nil
}

// UpdateChargesRequest adjusts labor cost, other charges or the
// diagnosis on a non-terminal job.
type UpdateChargesRequest struct {
	LaborCost    *types.Money `json:"laborCost"`
	OtherCharges *types.Money `json:"otherCharges"`
	Diagnosis    *string      `json:"diagnosis"`
}

// ToInput converts the request to the domain input.
func (r *UpdateChargesRequest) ToInput(actorID string) service_order.UpdateChargesInput {
	return service_order.UpdateChargesInput{
		LaborCost:    r.LaborCost,
		OtherCharges: r.OtherCharges,
		Diagnosis:    r.Diagnosis,
		ActorID:      actorID,
	}
}

// ToServiceOrderInput converts the shared payment request to the
// service order domain input.
func (r *UpdatePaymentRequest) ToServiceOrderInput(actorID string) service_order.UpdatePaymentInput {
	return service_order.UpdatePaymentInput{
		AmountPaid:    r.AmountPaid,
		PaymentMethod: r.PaymentMethod,
		ActorID:       actorID,
	}
}
