// Package cache provides the Redis-backed read cache for stock views.
// Writers never touch it directly: the outbox worker invalidates keys
// when stock.changed messages arrive, so a cached view is at worst one
// relay cycle stale.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"garasi/internal/core/id"
)

// Cache stores JSON snapshots of read-heavy stock views. A miss is
// reported through the bool return, not an error.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Key builders. Invalidation deletes explicit keys only; nothing scans
// key patterns on the hot path.

// StockRecordKey caches one (product, branch) record.
func StockRecordKey(productID, branchID id.ID) string {
	return fmt.Sprintf("stock:record:%s:%s", productID, branchID)
}

// StockSummaryKey caches the cross-branch summary for one product.
func StockSummaryKey(productID id.ID) string {
	return fmt.Sprintf("stock:summary:%s", productID)
}

// LowStockKey caches the low stock report for one branch, or for all
// branches when branchID is nil.
func LowStockKey(branchID *id.ID) string {
	if branchID == nil {
		return "stock:low:all"
	}
	return fmt.Sprintf("stock:low:%s", branchID)
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache implements Cache on go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects a cache client. Call Ping to verify the
// connection before serving traffic.
func NewRedisCache(cfg Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{client: client}
}

// Ping verifies the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetJSON loads and unmarshals the value at key into dest.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value and stores it under key with a TTL.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if value == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete drops the given keys. Missing keys are not an error.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)

// NoopCache is a Cache that stores nothing. Used when Redis is not
// configured; every read is a miss.
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, string, any) (bool, error)        { return false, nil }
func (NoopCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (NoopCache) Delete(context.Context, ...string) error                   { return nil }
func (NoopCache) Close() error                                              { return nil }

var _ Cache = NoopCache{}

// Invalidator drops the cached views touched by one stock change.
type Invalidator struct {
	cache Cache
}

// NewInvalidator creates an invalidator over the cache.
func NewInvalidator(cache Cache) *Invalidator {
	return &Invalidator{cache: cache}
}

// OnStockChanged deletes the record, summary and low stock views for
// the changed (product, branch) pair.
func (i *Invalidator) OnStockChanged(ctx context.Context, productID, branchID id.ID) error {
	return i.cache.Delete(ctx,
		StockRecordKey(productID, branchID),
		StockSummaryKey(productID),
		LowStockKey(&branchID),
		LowStockKey(nil),
	)
}
