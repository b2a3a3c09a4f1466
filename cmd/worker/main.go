// Package main is the entry point for the garasi background worker.
// It relays outbox messages into cache invalidations and runs the
// hourly storage cleanup (expired refresh tokens, idempotency keys).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"garasi/internal/infrastructure/cache"
	"garasi/internal/infrastructure/events"
	"garasi/internal/infrastructure/storage/postgres"
	"garasi/internal/infrastructure/storage/postgres/auth_repo"
	"garasi/pkg/logger"
)

const (
	outboxPollInterval = 500 * time.Millisecond
	outboxBatchSize    = 100
	cleanupInterval    = 1 * time.Hour
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting garasi worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	var appCache cache.Cache = cache.NoopCache{}
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		redisCache := cache.NewRedisCache(cache.Config{
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
		log.Info("redis not configured, invalidation messages will be acked without effect")
	}

	idempotencyStore := postgres.NewIdempotencyStore(txm, getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour))

	worker := NewWorker(txm, appCache, auth_repo.NewTokenRepo(txm), idempotencyStore, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// TokenCleaner removes expired or revoked refresh tokens.
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// Worker drains the outbox and runs periodic cleanup.
type Worker struct {
	relay       *postgres.OutboxRelay
	tokens      TokenCleaner
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger
}

// NewWorker creates the background worker.
func NewWorker(txm *postgres.TxManager, c cache.Cache, tokens TokenCleaner, idempotency *postgres.IdempotencyStore, log *logger.Logger) *Worker {
	handler := &invalidationHandler{
		invalidator: cache.NewInvalidator(c),
		log:         log.WithComponent("outbox"),
	}
	return &Worker{
		relay:       postgres.NewOutboxRelay(txm, outboxBatchSize, handler),
		tokens:      tokens,
		idempotency: idempotency,
		log:         log.WithComponent("worker"),
	}
}

// Run polls the outbox until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(cleanupInterval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	processed, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if processed > 0 {
		w.log.Debugw("processed outbox batch", "count", processed)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if count, err := w.tokens.CleanupExpiredTokens(ctx); err != nil {
		w.log.Errorw("refresh token cleanup failed", "error", err)
	} else if count > 0 {
		w.log.Infow("cleaned up expired refresh tokens", "count", count)
	}

	if count, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if count > 0 {
		w.log.Infow("cleaned up expired idempotency keys", "count", count)
	}

	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("outbox DLQ sweep failed", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved exhausted outbox messages to DLQ", "count", moved)
	}
}

// invalidationHandler translates outbox messages into cache deletions.
// Events that carry no cached view are acked without effect.
type invalidationHandler struct {
	invalidator *cache.Invalidator
	log         *logger.Logger
}

// Handle implements postgres.OutboxHandler.
func (h *invalidationHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case events.EventStockChanged:
		var payload events.StockChangedPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode stock.changed payload: %w", err)
		}
		return h.invalidator.OnStockChanged(ctx, payload.ProductID, payload.BranchID)

	case events.EventOrderCompleted, events.EventTransferCompleted:
		// Stock deltas from completions arrive as their own
		// stock.changed messages; nothing extra to invalidate.
		h.log.Debugw("order event acked", "event", msg.EventType, "aggregate_id", msg.AggregateID)
		return nil

	default:
		h.log.Warnw("unknown outbox event", "event", msg.EventType, "id", msg.ID)
		return nil
	}
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
