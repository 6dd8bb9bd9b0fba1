// Package middleware provides the HTTP middleware stack.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rasmogul/greatsoko/pkg/logger"
	"github.com/Rasmogul/greatsoko/pkg/response"
)

// Limiter decides whether key may make another request in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ── Redis fixed window ───────────────────────────────────────────────────────

// RedisLimiter shares counters across every API instance.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().UnixNano() / int64(l.window)
	k := "greatsoko:rate:" + key + ":" + strconv.FormatInt(slot, 10)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	return incr.Val() <= int64(l.max), nil
}

// ── In-memory fallback ───────────────────────────────────────────────────────

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}
	b.count++
	return b.count <= max
}

// MemoryLimiter is a per-process limiter for single-instance deployments
// and for when Redis is down.
type MemoryLimiter struct {
	max     int
	window  time.Duration
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewMemoryLimiter starts a janitor that evicts expired buckets until ctx is
// done.
func NewMemoryLimiter(ctx context.Context, max int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{max: max, window: window, buckets: map[string]*bucket{}}
	go l.evictLoop(ctx)
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.allow(l.max, l.window, time.Now()), nil
}

func (l *MemoryLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, b := range l.buckets {
				b.mu.Lock()
				expired := now.After(b.resetAt)
				b.mu.Unlock()
				if expired {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// fallbackLimiter asks primary and uses secondary when primary errors.
type fallbackLimiter struct {
	primary, secondary Limiter
}

// WithFallback returns a Limiter that degrades to secondary on errors.
func WithFallback(primary, secondary Limiter) Limiter {
	return &fallbackLimiter{primary: primary, secondary: secondary}
}

func (f *fallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := f.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	logger.WithCtx(ctx).Warn("rate limit: primary limiter failed", "error", err)
	return f.secondary.Allow(ctx, key)
}

// RateLimit rejects clients over the limiter's budget with 429.
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limit check failed", "error", err)
			}
			if !ok {
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
