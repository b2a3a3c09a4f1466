package handlers

import (
	"github.com/gin-gonic/gin"

	"garasi/internal/domain/catalogs/product"
	"garasi/internal/infrastructure/http/v1/dto"
)

// ProductHTTPHandler serves the product catalog.
type ProductHTTPHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler wires the generic catalog handler for products.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHTTPHandler {
	cfg := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
	}

	return &ProductHTTPHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// GetBySKU handles GET /products/sku/:sku.
func (h *ProductHTTPHandler) GetBySKU(c *gin.Context) {
	item, err := h.service.FindBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, item)
}
