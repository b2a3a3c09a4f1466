package dto

import (
	"garasi/internal/domain/documents/stock_transfer"
)

// --- Request DTOs ---

// CreateTransferRequest moves one product between two branches.
type CreateTransferRequest struct {
	ProductID    string `json:"productId" binding:"required"`
	FromBranchID string `json:"fromBranchId" binding:"required"`
	ToBranchID   string `json:"toBranchId" binding:"required"`
	Quantity     int64  `json:"quantity" binding:"required,gt=0"`
	Notes        string `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *CreateTransferRequest) ToInput(actorID string) (stock_transfer.CreateInput, error) {
	productID, err := parseID(r.ProductID, "productId")
	if err != nil {
		return stock_transfer.CreateInput{}, err
	}
	fromBranchID, err := parseID(r.FromBranchID, "fromBranchId")
	if err != nil {
		return stock_transfer.CreateInput{}, err
	}
	toBranchID, err := parseID(r.ToBranchID, "toBranchId")
	if err != nil {
		return stock_transfer.CreateInput{}, err
	}

	return stock_transfer.CreateInput{
		ProductID:    productID,
		FromBranchID: fromBranchID,
		ToBranchID:   toBranchID,
		Quantity:     r.Quantity,
		Notes:        r.Notes,
		ActorID:      actorID,
	}, nil
}

// TransferStatusRequest advances the transfer lifecycle.
type TransferStatusRequest struct {
	Status stock_transfer.Status `json:"status" binding:"required"`
}
