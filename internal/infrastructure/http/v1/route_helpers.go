// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler is the route surface shared by catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes wires standard CRUD routes for a catalog.
// Reads are open to every authenticated user; mutations run behind
// writeGuard.
//
// Usage:
//
//	repo := catalog_repo.NewProductRepo(txm)
//	service := product.NewService(repo, txm, num)
//	handler := handlers.NewProductHandler(baseHandler, service)
//	RegisterCatalogRoutes(api.Group("/products"), handler, middleware.RequireRole(security.RoleAdmin, security.RoleManager))
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, writeGuard gin.HandlerFunc) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)

	group.POST("", writeGuard, handler.Create)
	group.PUT("/:id", writeGuard, handler.Update)
	group.DELETE("/:id", writeGuard, handler.Delete)
	group.POST("/:id/deletion-mark", writeGuard, handler.SetDeletionMark)
}
