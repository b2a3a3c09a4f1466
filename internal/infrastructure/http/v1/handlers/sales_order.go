package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/documents/sales_order"
	"garasi/internal/infrastructure/http/v1/dto"
)

// SalesOrderHandler handles HTTP requests for sales order documents.
type SalesOrderHandler struct {
	*BaseHandler
	service *sales_order.Service
}

// NewSalesOrderHandler creates a new sales order handler.
func NewSalesOrderHandler(base *BaseHandler, service *sales_order.Service) *SalesOrderHandler {
	return &SalesOrderHandler{BaseHandler: base, service: service}
}

// List handles GET /sales-orders.
func (h *SalesOrderHandler) List(c *gin.Context) {
	f := sales_order.ListFilter{
		ListFilter: domain.ListFilter{
			Search: c.Query("search"),
			Limit:  h.ParseIntQuery(c, "limit", 50),
			Offset: h.ParseIntQuery(c, "offset", 0),
		},
		DateFrom: h.ParseTimeQuery(c, "dateFrom"),
		DateTo:   h.ParseTimeQuery(c, "dateTo"),
	}

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	f.BranchID = branchID

	if s := c.Query("status"); s != "" {
		status := sales_order.Status(s)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", s))
			return
		}
		f.Status = &status
	}

	if s := c.Query("paymentStatus"); s != "" {
		ps := types.PaymentStatus(s)
		if !ps.Valid() {
			h.Error(c, apperror.NewValidation("unknown payment status").WithDetail("paymentStatus", s))
			return
		}
		f.PaymentStatus = &ps
	}

	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Create handles POST /sales-orders.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedData(c, doc)
}

// Get handles GET /sales-orders/:id.
func (h *SalesOrderHandler) Get(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UpdateStatus handles POST /sales-orders/:id/status.
func (h *SalesOrderHandler) UpdateStatus(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.OrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.AdvanceStatus(c.Request.Context(), docID, req.Status, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// UpdatePayment handles PUT /sales-orders/:id/payment.
func (h *SalesOrderHandler) UpdatePayment(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdatePayment(c.Request.Context(), docID, req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Cancel handles DELETE /sales-orders/:id.
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
