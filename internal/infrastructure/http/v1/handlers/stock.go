package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/entity"
	"garasi/internal/domain/registers/stock"
	"garasi/internal/infrastructure/cache"
	"garasi/internal/infrastructure/http/v1/dto"
)

// stockCacheTTL bounds staleness if an invalidation message is lost;
// the outbox worker normally clears entries within one relay cycle.
const stockCacheTTL = 5 * time.Minute

// StockHandler handles HTTP requests for the stock register.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
	cache   cache.Cache
}

// NewStockHandler creates a new stock register handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, c cache.Cache) *StockHandler {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		cache:       c,
	}
}

// List handles GET /stock.
func (h *StockHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	f := stock.Filter{
		LowStock:   c.Query("lowStock") == "true",
		OutOfStock: c.Query("outOfStock") == "true",
		Search:     c.Query("search"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	f.BranchID = branchID

	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}
	f.ProductID = productID

	result, err := h.service.List(ctx, f)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /stock/:productId/:branchId.
func (h *StockHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}
	branchID, ok := h.ParseIDParam(c, "branchId")
	if !ok {
		return
	}

	key := cache.StockRecordKey(productID, branchID)
	var cached entity.StockRecord
	if hit, _ := h.cache.GetJSON(ctx, key, &cached); hit {
		c.JSON(http.StatusOK, &cached)
		return
	}

	rec, err := h.service.GetRecord(ctx, productID, branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	_ = h.cache.SetJSON(ctx, key, rec, stockCacheTTL)

	c.JSON(http.StatusOK, rec)
}

// GetSummary handles GET /stock/summary/:productId.
func (h *StockHandler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	key := cache.StockSummaryKey(productID)
	var cached stock.Summary
	if hit, _ := h.cache.GetJSON(ctx, key, &cached); hit {
		c.JSON(http.StatusOK, &cached)
		return
	}

	summary, err := h.service.GetSummary(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	_ = h.cache.SetJSON(ctx, key, summary, stockCacheTTL)

	c.JSON(http.StatusOK, summary)
}

// Restock handles POST /stock/restock.
func (h *StockHandler) Restock(c *gin.Context) {
	var req dto.RestockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Restock(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}

// Adjust handles POST /stock/adjust.
func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput(h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	rec, err := h.service.Adjust(c.Request.Context(), input)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, rec)
}
