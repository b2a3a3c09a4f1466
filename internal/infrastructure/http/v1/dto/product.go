package dto

import (
	"garasi/internal/core/types"
	"garasi/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code         string      `json:"code"`
	Name         string      `json:"name" binding:"required"`
	SKU          *string     `json:"sku"`
	Description  *string     `json:"description"`
	Category     string      `json:"category"`
	Brand        *string     `json:"brand"`
	Unit         string      `json:"unit"`
	CostPrice    types.Money `json:"costPrice"`
	SellingPrice types.Money `json:"sellingPrice"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	item := product.NewProduct(r.Code, r.Name)
	item.SKU = r.SKU
	item.Description = r.Description
	item.Category = r.Category
	item.Brand = r.Brand
	if r.Unit != "" {
		item.Unit = r.Unit
	}
	item.CostPrice = r.CostPrice
	item.SellingPrice = r.SellingPrice
	return item
}

// UpdateProductRequest is the request body for updating a product.
// Version is required for optimistic locking.
type UpdateProductRequest struct {
	Code         string      `json:"code"`
	Name         string      `json:"name" binding:"required"`
	SKU          *string     `json:"sku"`
	Description  *string     `json:"description"`
	Category     string      `json:"category"`
	Brand        *string     `json:"brand"`
	Unit         string      `json:"unit"`
	CostPrice    types.Money `json:"costPrice"`
	SellingPrice types.Money `json:"sellingPrice"`
	IsActive     *bool       `json:"isActive"`
	Version      int         `json:"version" binding:"required"`
}

// ApplyTo applies the update to an existing entity.
func (r *UpdateProductRequest) ApplyTo(item *product.Product) {
	item.Code = r.Code
	item.Name = r.Name
	item.SKU = r.SKU
	item.Description = r.Description
	item.Category = r.Category
	item.Brand = r.Brand
	if r.Unit != "" {
		item.Unit = r.Unit
	}
	item.CostPrice = r.CostPrice
	item.SellingPrice = r.SellingPrice
	if r.IsActive != nil {
		item.IsActive = *r.IsActive
	}
	item.Version = r.Version
}
