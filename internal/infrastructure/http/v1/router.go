// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"garasi/internal/core/security"
	"garasi/internal/domain/auth"
	"garasi/internal/domain/catalogs/branch"
	"garasi/internal/domain/catalogs/product"
	"garasi/internal/domain/documents/sales_order"
	"garasi/internal/domain/documents/service_order"
	"garasi/internal/domain/documents/stock_transfer"
	"garasi/internal/domain/ledger"
	"garasi/internal/domain/registers/stock"
	"garasi/internal/domain/reports"
	"garasi/internal/infrastructure/cache"
	"garasi/internal/infrastructure/http/v1/handlers"
	"garasi/internal/infrastructure/http/v1/middleware"
	"garasi/internal/infrastructure/storage/postgres"
	"garasi/pkg/logger"
)

// RouterConfig holds the wired services and infrastructure the HTTP
// layer exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	AuthService         *auth.Service
	ProductService      *product.Service
	BranchService       *branch.Service
	StockService        *stock.Service
	TransferService     *stock_transfer.Service
	SalesOrderService   *sales_order.Service
	ServiceOrderService *service_order.Service
	LedgerService       *ledger.Service
	ReportsService      *reports.Service

	// AuditService serves the admin-only history endpoint.
	AuditService *postgres.AuditService

	// IdempotencyStore backs X-Idempotency-Key replay; the middleware is
	// skipped entirely when IdempotencyEnabled is false.
	IdempotencyStore   *postgres.IdempotencyStore
	IdempotencyEnabled bool

	// Cache serves read-through stock lookups. Nil means no caching.
	Cache cache.Cache

	// Redis is the concrete client for readiness checks; nil when the
	// cache is disabled.
	Redis *cache.RedisCache
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	api := router.Group("/api/v1")
	{
		registerAuthRoutes(api, cfg)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		protected.Use(middleware.UserContext())

		if cfg.IdempotencyEnabled && cfg.IdempotencyStore != nil {
			protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
		}

		registerUserRoutes(protected, cfg)
		registerCatalogRoutes(protected, cfg)
		registerStockRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
		registerTransferRoutes(protected, cfg)
		registerSalesOrderRoutes(protected, cfg)
		registerServiceOrderRoutes(protected, cfg)
		registerTransactionRoutes(protected, cfg)
		registerAuditRoutes(protected, cfg)
	}

	return router
}

func adminOnly() gin.HandlerFunc {
	return middleware.RequireRole(security.RoleAdmin)
}

func adminOrManager() gin.HandlerFunc {
	return middleware.RequireRole(security.RoleAdmin, security.RoleManager)
}

// registerAuthRoutes registers authentication endpoints. Login and
// refresh are public; logout, me and register require a valid token,
// and register is admin-only.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	public := rg.Group("/auth")
	{
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
	}

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	protected.Use(middleware.UserContext())
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)
		protected.POST("/register", adminOnly(), authHandler.Register)
	}
}

// registerUserRoutes registers staff account listings.
func registerUserRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	userHandler := handlers.NewUserHandler(baseHandler, cfg.AuthService)

	users := rg.Group("/users")
	{
		users.GET("", adminOrManager(), userHandler.List)
		users.GET("/mechanics", userHandler.ListMechanics)
	}
}

// registerCatalogRoutes registers product and branch catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	productHandler := handlers.NewProductHandler(baseHandler, cfg.ProductService)
	productsGroup := rg.Group("/products")
	RegisterCatalogRoutes(productsGroup, productHandler, adminOrManager())
	productsGroup.GET("/sku/:sku", productHandler.GetBySKU)

	branchHandler := handlers.NewBranchHandler(baseHandler, cfg.BranchService)
	RegisterCatalogRoutes(rg.Group("/branches"), branchHandler, adminOnly())
}

// registerStockRoutes registers the stock register endpoints.
func registerStockRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	stockHandler := handlers.NewStockHandler(baseHandler, cfg.StockService, cfg.Cache)

	stockGroup := rg.Group("/stock")
	{
		stockGroup.GET("", stockHandler.List)
		stockGroup.GET("/summary/:productId", stockHandler.GetSummary)
		stockGroup.GET("/:productId/:branchId", stockHandler.Get)

		stockGroup.POST("/restock", adminOrManager(), stockHandler.Restock)
		stockGroup.POST("/adjust", adminOnly(), stockHandler.Adjust)
	}
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	reportsHandler := handlers.NewReportsHandler(baseHandler, cfg.ReportsService, cfg.Cache)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/low-stock", reportsHandler.GetLowStock)
		reportsGroup.GET("/stock-value", reportsHandler.GetStockValue)
	}
}

// registerTransferRoutes registers stock transfer endpoints.
func registerTransferRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	transferHandler := handlers.NewTransferHandler(baseHandler, cfg.TransferService)

	transfers := rg.Group("/transfers")
	{
		transfers.GET("", transferHandler.List)
		transfers.POST("", transferHandler.Create)
		transfers.GET("/:id", transferHandler.Get)
		transfers.POST("/:id/status", transferHandler.UpdateStatus)
	}
}

// registerSalesOrderRoutes registers sales order endpoints.
func registerSalesOrderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	orderHandler := handlers.NewSalesOrderHandler(baseHandler, cfg.SalesOrderService)

	orders := rg.Group("/sales-orders")
	{
		orders.GET("", orderHandler.List)
		orders.POST("", orderHandler.Create)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("/:id/status", orderHandler.UpdateStatus)
		orders.PUT("/:id/payment", orderHandler.UpdatePayment)
		orders.DELETE("/:id", orderHandler.Cancel)
	}
}

// registerServiceOrderRoutes registers workshop job endpoints.
func registerServiceOrderRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	orderHandler := handlers.NewServiceOrderHandler(baseHandler, cfg.ServiceOrderService)

	orders := rg.Group("/service-orders")
	{
		orders.GET("", orderHandler.List)
		orders.POST("", orderHandler.Create)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("/:id/status", orderHandler.UpdateStatus)
		orders.POST("/:id/assign", orderHandler.Assign)
		orders.PUT("/:id/parts", orderHandler.UpdateParts)
		orders.PUT("/:id/charges", orderHandler.UpdateCharges)
		orders.PUT("/:id/payment", orderHandler.UpdatePayment)
	}
}

// registerTransactionRoutes registers the read-only ledger endpoints.
func registerTransactionRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	txHandler := handlers.NewTransactionHandler(baseHandler, cfg.LedgerService)

	transactions := rg.Group("/transactions")
	{
		transactions.GET("", txHandler.List)
		transactions.GET("/:id", txHandler.Get)
	}
}

// registerAuditRoutes registers the audit history endpoint.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	auditHandler := handlers.NewAuditHandler(baseHandler, cfg.AuditService)

	rg.GET("/audit/:entityType/:entityId", adminOnly(), auditHandler.GetHistory)
}
