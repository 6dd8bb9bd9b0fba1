// Package cache is a thin JSON-over-Redis read cache. Every call is a no-op
// miss when Redis is not connected, so callers never branch on availability.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rasmogul/greatsoko/config"
	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/metrics"
)

// RDB is the shared client, nil when Redis is unavailable. The queue driver
// and rate limiter reuse it.
var RDB *redis.Client

const keyPrefix = "greatsoko:"

// Connect initialises RDB and verifies it with a ping. On failure RDB stays
// nil and the error is returned so the caller can decide to continue.
func Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("cache: redis ping: %w", err)
	}

	RDB = client
	return nil
}

// Close releases the client.
func Close() {
	if RDB != nil {
		_ = RDB.Close()
		RDB = nil
	}
}

// Get unmarshals the cached value into dest. Returns true on a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(val, dest) == nil
}

// Set stores value under key for ttl.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(ctx, keyPrefix+key, data, ttl).Err()
}

// Forget removes keys.
func Forget(ctx context.Context, keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	return RDB.Del(ctx, full...).Err()
}

// Remember returns the cached value for key, or calls load, caches its
// result for ttl and returns it. Cache write failures are logged, not
// returned.
//
//	top, err := cache.Remember(ctx, "products:top", ttl, func() ([]models.Product, error) {
//	    return repo.Top(ctx, 3)
//	})
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var cached T
	if Get(ctx, key, &cached) {
		metrics.CacheHits.WithLabelValues(key).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(key).Inc()

	fresh, err := load()
	if err != nil {
		return fresh, err
	}
	if err := Set(ctx, key, fresh, ttl); err != nil {
		logger.WithCtx(ctx).Warn("cache: write failed", "key", key, "error", err)
	}
	return fresh, nil
}
