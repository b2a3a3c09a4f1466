package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/domain/reports"
	"garasi/internal/infrastructure/cache"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
	cache   cache.Cache
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service, c cache.Cache) *ReportsHandler {
	if c == nil {
		c = cache.NoopCache{}
	}
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
		cache:       c,
	}
}

// GetLowStock handles GET /reports/low-stock.
func (h *ReportsHandler) GetLowStock(c *gin.Context) {
	ctx := c.Request.Context()

	filter := reports.LowStockFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	filter.BranchID = branchID

	// The cache key has no pagination dimension, so only the default
	// page (the dashboard hot path) goes through the cache.
	_, hasLimit := c.GetQuery("limit")
	_, hasOffset := c.GetQuery("offset")
	cacheable := !hasLimit && !hasOffset

	key := cache.LowStockKey(branchID)
	if cacheable {
		var cached reports.LowStockReport
		if hit, _ := h.cache.GetJSON(ctx, key, &cached); hit {
			c.JSON(http.StatusOK, &cached)
			return
		}
	}

	report, err := h.service.GetLowStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	if cacheable {
		_ = h.cache.SetJSON(ctx, key, report, stockCacheTTL)
	}

	c.JSON(http.StatusOK, report)
}

// GetStockValue handles GET /reports/stock-value.
func (h *ReportsHandler) GetStockValue(c *gin.Context) {
	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}

	report, err := h.service.GetStockValue(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
