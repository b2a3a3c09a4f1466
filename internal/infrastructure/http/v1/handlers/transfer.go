package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	"garasi/internal/domain"
	"garasi/internal/domain/documents/stock_transfer"
	"garasi/internal/infrastructure/http/v1/dto"
)

// TransferHandler handles HTTP requests for stock transfer documents.
type TransferHandler struct {
	*BaseHandler
	service *stock_transfer.Service
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(base *BaseHandler, service *stock_transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// List handles GET /transfers.
func (h *TransferHandler) List(c *gin.Context) {
	f := stock_transfer.ListFilter{
		ListFilter: domain.ListFilter{
			Search: c.Query("search"),
			Limit:  h.ParseIntQuery(c, "limit", 50),
			Offset: h.ParseIntQuery(c, "offset", 0),
		},
		DateFrom: h.ParseTimeQuery(c, "dateFrom"),
		DateTo:   h.ParseTimeQuery(c, "dateTo"),
	}

	var ok bool
	if f.ProductID, ok = h.ParseIDQuery(c, "productId"); !ok {
		return
	}
	if f.FromBranchID, ok = h.ParseIDQuery(c, "fromBranchId"); !ok {
		return
	}
	if f.ToBranchID, ok = h.ParseIDQuery(c, "toBranchId"); !ok {
		return
	}
	if f.BranchID, ok = h.ParseIDQuery(c, "branchId"); !ok {
		return
	}

	if s := c.Query("status"); s != "" {
		status := stock_transfer.Status(s)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("status", s))
			return
		}
		f.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Create handles POST /transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
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

// Get handles GET /transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
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

// UpdateStatus handles POST /transfers/:id/status.
func (h *TransferHandler) UpdateStatus(c *gin.Context) {
	docID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.TransferStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Advance(c.Request.Context(), docID, req.Status, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
