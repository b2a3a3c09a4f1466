// Package main is the entry point for the garasi API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	"garasi/internal/infrastructure/events"
	v1 "garasi/internal/infrastructure/http/v1"
	"garasi/internal/infrastructure/storage/postgres"
	"garasi/internal/infrastructure/storage/postgres/auth_repo"
	"garasi/internal/infrastructure/storage/postgres/catalog_repo"
	"garasi/internal/infrastructure/storage/postgres/document_repo"
	"garasi/internal/infrastructure/storage/postgres/ledger_repo"
	"garasi/internal/infrastructure/storage/postgres/register_repo"
	"garasi/internal/infrastructure/storage/postgres/report_repo"
	"garasi/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting garasi server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	if minConns := getEnvInt("DB_MIN_CONNS", 0); minConns > 0 {
		poolCfg.MinConns = int32(minConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			pool.LogStats(ctx)
		}
	}()

	// --- Cache (optional) ---
	var (
		appCache   cache.Cache = cache.NoopCache{}
		redisCache *cache.RedisCache
	)
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisCache = cache.NewRedisCache(cache.Config{
			Addr:     addr,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalw("failed to connect to redis", "addr", addr, "error", err)
		}
		defer redisCache.Close()
		appCache = redisCache
		log.Infow("redis cache connected", "addr", addr)
	} else {
		log.Info("redis not configured, stock caching disabled")
	}

	// --- Shared infrastructure ---
	numeratorService := postgres.NewNumeratorService(pool)
	outboxPublisher := postgres.NewOutboxPublisher(txm)

	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	auditor := events.NewAuditAdapter(auditService)

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Catalogs ---
	productService := product.NewService(catalog_repo.NewProductRepo(txm), txm, numeratorService)
	branchService := branch.NewService(catalog_repo.NewBranchRepo(txm), txm, numeratorService)

	// --- Auth ---
	authService := auth.NewService(auth.ServiceConfig{
		Users:     auth_repo.NewUserRepo(txm),
		Tokens:    auth_repo.NewTokenRepo(txm),
		Branches:  branchService,
		TxManager: txm,
		JWT:       jwtService,
		Config:    auth.DefaultConfig(),
	})

	// --- Stock register ---
	stockService := stock.NewService(stock.ServiceConfig{
		Repo:      register_repo.NewStockRepo(txm),
		Products:  productService,
		Branches:  branchService,
		TxManager: txm,
		Events:    events.NewStockPublisher(outboxPublisher),
		Auditor:   auditor,
	})

	// --- Ledger ---
	ledgerService := ledger.NewService(ledger_repo.NewTransactionRepo(txm), numeratorService)

	// --- Documents ---
	transferService := stock_transfer.NewService(stock_transfer.ServiceConfig{
		Repo:      document_repo.NewStockTransferRepo(txm),
		Stock:     stockService,
		Products:  productService,
		Branches:  branchService,
		Numerator: numeratorService,
		TxManager: txm,
		Auditor:   auditor,
		Events:    events.NewTransferPublisher(outboxPublisher),
	})

	salesOrderService := sales_order.NewService(sales_order.ServiceConfig{
		Repo:      document_repo.NewSalesOrderRepo(txm),
		Stock:     stockService,
		Products:  productService,
		Branches:  branchService,
		Ledger:    ledgerService,
		Numerator: numeratorService,
		TxManager: txm,
		Auditor:   auditor,
		Events:    events.NewSalesOrderPublisher(outboxPublisher),
	})

	serviceOrderService := service_order.NewService(service_order.ServiceConfig{
		Repo:      document_repo.NewServiceOrderRepo(txm),
		Stock:     stockService,
		Products:  productService,
		Branches:  branchService,
		Mechanics: authService,
		Ledger:    ledgerService,
		Numerator: numeratorService,
		TxManager: txm,
		Auditor:   auditor,
		Events:    events.NewServiceOrderPublisher(outboxPublisher),
	})

	// --- Reports ---
	reportsService := reports.NewService(report_repo.NewReportRepo(txm), txm)

	// --- Idempotency ---
	idempotencyTTL := getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	idempotencyStore := postgres.NewIdempotencyStore(txm, idempotencyTTL)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		JWTValidator:        jwtService,
		AuthService:         authService,
		ProductService:      productService,
		BranchService:       branchService,
		StockService:        stockService,
		TransferService:     transferService,
		SalesOrderService:   salesOrderService,
		ServiceOrderService: serviceOrderService,
		LedgerService:       ledgerService,
		ReportsService:      reportsService,
		AuditService:        auditService,
		IdempotencyStore:    idempotencyStore,
		IdempotencyEnabled:  getEnv("IDEMPOTENCY_ENABLED", "true") == "true",
		Cache:               appCache,
		Redis:               redisCache,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
