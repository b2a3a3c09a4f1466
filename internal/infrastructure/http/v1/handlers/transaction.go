package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	"garasi/internal/domain"
	"garasi/internal/domain/ledger"
)

// TransactionHandler handles HTTP requests for the transaction ledger.
// The ledger is read-only over HTTP; entries are recorded by the order
// services when documents complete.
type TransactionHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(base *BaseHandler, service *ledger.Service) *TransactionHandler {
	return &TransactionHandler{BaseHandler: base, service: service}
}

// List handles GET /transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	f := ledger.ListFilter{
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

	if s := c.Query("type"); s != "" {
		txType := ledger.Type(s)
		if !txType.Valid() {
			h.Error(c, apperror.NewValidation("unknown transaction type").WithDetail("type", s))
			return
		}
		f.Type = &txType
	}

	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /transactions/:id.
func (h *TransactionHandler) Get(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}
