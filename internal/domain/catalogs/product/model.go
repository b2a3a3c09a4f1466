// Package product provides the Product catalog.
// Products are the parts, fluids and accessories sold and consumed
// across workshop branches.
package product

import (
	"context"

	"garasi/internal/core/apperror"
	"garasi/internal/core/entity"
	"garasi/internal/core/types"
)

// Product represents an item in the shared product catalog.
// Prices here are catalog defaults; each branch carries its own
// cost and selling price on its stock record.
type Product struct {
	entity.Catalog

	// SKU is the stock keeping unit (unique when set)
	SKU *string `db:"sku" json:"sku,omitempty"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// Category groups products (e.g., "sparepart", "oil", "accessory")
	Category string `db:"category" json:"category"`

	// Brand is the manufacturer brand
	Brand *string `db:"brand" json:"brand,omitempty"`

	// Unit is the unit of measure (e.g., "pcs", "liter", "set")
	Unit string `db:"unit" json:"unit"`

	// CostPrice is the default cost price for new stock records
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// SellingPrice is the default selling price for new stock records
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// IsActive indicates whether the product can be sold or restocked
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name string) *Product {
	return &Product{
		Catalog:      entity.NewCatalog(code, name),
		Unit:         "pcs",
		CostPrice:    types.Zero(),
		SellingPrice: types.Zero(),
		IsActive:     true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	// Base catalog validation
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").
			WithDetail("field", "costPrice")
	}

	if p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price cannot be negative").
			WithDetail("field", "sellingPrice")
	}

	return nil
}
