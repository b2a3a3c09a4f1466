package dto

import (
	"garasi/internal/core/types"
	"garasi/internal/domain/registers/stock"
)

// --- Request DTOs ---

// RestockRequest adds inbound quantity to a branch's stock record.
// Optional fields overwrite the stored record when provided.
type RestockRequest struct {
	ProductID       string       `json:"productId" binding:"required"`
	BranchID        string       `json:"branchId" binding:"required"`
	Quantity        int64        `json:"quantity" binding:"required,gt=0"`
	CostPrice       *types.Money `json:"costPrice"`
	SellingPrice    *types.Money `json:"sellingPrice"`
	ReorderPoint    *int64       `json:"reorderPoint"`
	ReorderQuantity *int64       `json:"reorderQuantity"`
	Location        *string      `json:"location"`
}

// ToInput converts the request to the domain input.
func (r *RestockRequest) ToInput(actorID string) (stock.RestockInput, error) {
	productID, err := parseID(r.ProductID, "productId")
	if err != nil {
		return stock.RestockInput{}, err
	}
	branchID, err := parseID(r.BranchID, "branchId")
	if err != nil {
		return stock.RestockInput{}, err
	}

	return stock.RestockInput{
		ProductID:       productID,
		BranchID:        branchID,
		QuantityDelta:   r.Quantity,
		CostPrice:       r.CostPrice,
		SellingPrice:    r.SellingPrice,
		ReorderPoint:    r.ReorderPoint,
		ReorderQuantity: r.ReorderQuantity,
		Location:        r.Location,
		ActorID:         actorID,
	}, nil
}

// AdjustStockRequest applies a signed correction to on-hand quantity.
type AdjustStockRequest struct {
	ProductID string `json:"productId" binding:"required"`
	BranchID  string `json:"branchId" binding:"required"`
	Delta     int64  `json:"delta" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// ToInput converts the request to the domain input.
func (r *AdjustStockRequest) ToInput(actorID string) (stock.AdjustInput, error) {
	productID, err := parseID(r.ProductID, "productId")
	if err != nil {
		return stock.AdjustInput{}, err
	}
	branchID, err := parseID(r.BranchID, "branchId")
	if err != nil {
		return stock.AdjustInput{}, err
	}

	return stock.AdjustInput{
		ProductID: productID,
		BranchID:  branchID,
		Delta:     r.Delta,
		Reason:    r.Reason,
		ActorID:   actorID,
	}, nil
}
