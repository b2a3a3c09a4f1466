package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	"garasi/internal/infrastructure/storage/postgres"
)

// auditEntityTypes lists the entity types the services write audit
// entries for. Anything else is a client mistake, not an empty history.
var auditEntityTypes = map[string]bool{
	"stock_record":   true,
	"stock_transfer": true,
	"sales_order":    true,
	"service_order":  true,
}

// AuditHandler serves the audit trail.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

type auditHistoryResponse struct {
	Items []postgres.AuditEntry `json:"items"`
}

// GetHistory handles GET /audit/:entityType/:entityId.
func (h *AuditHandler) GetHistory(c *gin.Context) {
	entityType := c.Param("entityType")
	if !auditEntityTypes[entityType] {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("entityType", entityType))
		return
	}

	entityID, ok := h.ParseIDParam(c, "entityId")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []postgres.AuditEntry{}
	}

	c.JSON(http.StatusOK, auditHistoryResponse{Items: entries})
}
