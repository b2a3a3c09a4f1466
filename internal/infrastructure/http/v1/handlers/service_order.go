package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	"garasi/internal/core/id"
	"garasi/internal/core/types"
	"garasi/internal/domain"
	"garasi/internal/domain/documents/service_order"
	"garasi/internal/infrastructure/http/v1/dto"
)

// ServiceOrderHandler handles HTTP requests for workshop job documents.
type ServiceOrderHandler struct {
	*BaseHandler
	service *service_order.Service
}

// NewServiceOrderHandler creates a new service order handler.
func NewServiceOrderHandler(base *BaseHandler, service *service_order.Service) *ServiceOrderHandler {
	return &ServiceOrderHandler{BaseHandler: base, service: service}
}

// List handles GET /service-orders.
func (h *ServiceOrderHandler) List(c *gin.Context) {
	f := service_order.ListFilter{
		ListFilter: domain.ListFilter{
			Search: c.Query("search"),
			Limit:  h.ParseIntQuery(c, "limit", 50),
			Offset: h.ParseIntQuery(c, "offset", 0),
		},
		DateFrom: h.ParseTimeQuery(c, "dateFrom"),
		DateTo:   h.ParseTimeQuery(c, "dateTo"),
	}

	var ok bool
	if f.BranchID, ok = h.ParseIDQuery(c, "branchId"); !ok {
		return
	}
	if f.AssignedTo, ok = h.ParseIDQuery(c, "assignedTo"); !ok {
		return
	}

	if s := c.Query("status"); s != "" {
		status := service_order.Status(s)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", s))
			return
		}
		f.Status = &status
	}

	if s := c.Query("priority"); s != "" {
		priority := service_order.Priority(s)
		if !priority.Valid() {
			h.Error(c, apperror.NewValidation("unknown priority").WithDetail("priority", s))
			return
		}
		f.Priority = &priority
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

// Create handles POST /service-orders.
func (h *ServiceOrderHandler) Create(c *gin.Context) {
	var req dto.CreateServiceOrderRequest
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

// Get handles GET /service-orders/:id.
func (h *ServiceOrderHandler) Get(c *gin.Context) {
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

// UpdateStatus handles POST /service-orders/:id/status.
func (h *ServiceOrderHandler) UpdateStatus(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.ServiceOrderStatusRequest
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

// Assign handles POST /service-orders/:id/assign.
func (h *ServiceOrderHandler) Assign(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.AssignMechanicRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mechanicID, err := id.Parse(req.MechanicID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid mechanic id").WithDetail("mechanicId", req.MechanicID))
		return
	}

	doc, err := h.service.Assign(c.Request.Context(), docID, mechanicID, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// UpdateParts handles PUT /service-orders/:id/parts.
func (h *ServiceOrderHandler) UpdateParts(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePartsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	parts, err := req.ToInputs()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.UpdateParts(c.Request.Context(), docID, parts, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// UpdateCharges handles PUT /service-orders/:id/charges.
func (h *ServiceOrderHandler) UpdateCharges(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateChargesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdateCharges(c.Request.Context(), docID, req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// UpdatePayment handles PUT /service-orders/:id/payment.
func (h *ServiceOrderHandler) UpdatePayment(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.UpdatePayment(c.Request.Context(), docID, req.ToServiceOrderInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
