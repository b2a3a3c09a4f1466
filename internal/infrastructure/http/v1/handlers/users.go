package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"garasi/internal/core/apperror"
	appctx "garasi/internal/core/context"
	"garasi/internal/core/id"
	"garasi/internal/core/security"
	"garasi/internal/domain/auth"
	"garasi/internal/infrastructure/http/v1/dto"
)

// UserHandler serves staff account listings.
type UserHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewUserHandler creates a new user handler.
func NewUserHandler(base *BaseHandler, service *auth.Service) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /users. Non-admin callers see their own branch only.
func (h *UserHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := auth.UserFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if roleStr := c.Query("role"); roleStr != "" {
		role := security.Role(roleStr)
		if !security.ValidRole(roleStr) {
			h.Error(c, apperror.NewValidation("unknown role").WithDetail("role", roleStr))
			return
		}
		filter.Role = &role
	}

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}
	filter.BranchID = branchID

	if activeStr := c.Query("isActive"); activeStr != "" {
		active := activeStr == "true"
		filter.IsActive = &active
	}

	// Managers are scoped to their own branch.
	user := appctx.GetUser(ctx)
	if user != nil && !user.IsAdmin && user.BranchID != "" {
		home, err := id.Parse(user.BranchID)
		if err == nil {
			filter.BranchID = &home
		}
	}

	users, total, err := h.service.ListUsers(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      users,
		TotalCount: int64(total),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ListMechanics handles GET /users/mechanics?branchId= for service
// order assignment pickers. Non-admin callers default to their own
// branch.
func (h *UserHandler) ListMechanics(c *gin.Context) {
	ctx := c.Request.Context()

	branchID, ok := h.ParseIDQuery(c, "branchId")
	if !ok {
		return
	}

	if branchID == nil {
		user := appctx.GetUser(ctx)
		if user == nil || user.BranchID == "" {
			h.Error(c, apperror.NewValidation("branchId is required").
				WithDetail("param", "branchId"))
			return
		}
		home, err := id.Parse(user.BranchID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid branch id"))
			return
		}
		branchID = &home
	}

	mechanics, err := h.service.ListMechanics(ctx, *branchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": mechanics})
}
