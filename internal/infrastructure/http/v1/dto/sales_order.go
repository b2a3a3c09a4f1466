package dto

import (
	"garasi/internal/core/types"
	"garasi/internal/domain/documents/sales_order"
)

// --- Request DTOs ---

// OrderItemRequest is one requested line. Price and product identity are
// snapshotted server-side from the branch stock record.
type OrderItemRequest struct {
	ProductID string      `json:"productId" binding:"required"`
	Quantity  int64       `json:"quantity" binding:"required,gt=0"`
	Discount  types.Money `json:"discount"`
}

// CreateSalesOrderRequest creates a counter sale at one branch.
type CreateSalesOrderRequest struct {
	BranchID string `json:"branchId" binding:"required"`

	CustomerName    string  `json:"customerName" binding:"required"`
	CustomerPhone   *string `json:"customerPhone"`
	CustomerEmail   *string `json:"customerEmail"`
	CustomerAddress *string `json:"customerAddress"`

	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`

	TaxRate  types.Money `json:"taxRate"`
	Discount types.Money `json:"discount"`

	PaymentMethod types.PaymentMethod `json:"paymentMethod"`
	AmountPaid    types.Money         `json:"amountPaid"`

	Notes string `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *CreateSalesOrderRequest) ToInput(actorID string) (sales_order.CreateInput, error) {
	branchID, err := parseID(r.BranchID, "branchId")
	if err != nil {
		return sales_order.CreateInput{}, err
	}

	items := make([]sales_order.CreateItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := parseID(item.ProductID, "items.productId")
		if err != nil {
			return sales_order.CreateInput{}, err
		}
		items = append(items, sales_order.CreateItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
		})
	}

	method := r.PaymentMethod
	if method == "" {
		method = types.PaymentCash
	}

	return sales_order.CreateInput{
		BranchID:        branchID,
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		CustomerEmail:   r.CustomerEmail,
		CustomerAddress: r.CustomerAddress,
		Items:           items,
		TaxRate:         r.TaxRate,
		Discount:        r.Discount,
		PaymentMethod:   method,
		AmountPaid:      r.AmountPaid,
		Notes:           r.Notes,
		ActorID:         actorID,
	}, nil
}

// OrderStatusRequest advances the order lifecycle.
type OrderStatusRequest struct {
	Status sales_order.Status `json:"status" binding:"required"`
}

// UpdatePaymentRequest adjusts payment on a non-terminal order or job.
type UpdatePaymentRequest struct {
	AmountPaid    *types.Money         `json:"amountPaid"`
	PaymentMethod *types.PaymentMethod `json:"paymentMethod"`
}

// ToInput converts the request to the sales order domain input.
func (r *UpdatePaymentRequest) ToInput(actorID string) sales_order.UpdatePaymentInput {
	return sales_order.UpdatePaymentInput{
		AmountPaid:    r.AmountPaid,
		PaymentMethod: r.PaymentMethod,
		ActorID:       actorID,
	}
}
