// Package http provides HTTP middleware and utilities for authentication.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/captoken/internal/errors"
	"github.com/allisson/captoken/internal/httputil"
)

const (
	// limiterEvictionInterval is how often stale buckets are swept.
	limiterEvictionInterval = 5 * time.Minute
	// limiterStaleAfter is how long a bucket may sit untouched before eviction.
	limiterStaleAfter = time.Hour
)

// limiterPool tracks one token bucket per key and evicts buckets that have not
// been touched within limiterStaleAfter. Keys are client IDs for authenticated
// routes and caller IPs for the credential endpoints.
type limiterPool[K comparable] struct {
	entries sync.Map // K -> *limiterEntry
	rps     float64
	burst   int
}

// limiterEntry pairs a token bucket with its last access time in Unix nanoseconds.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

func newLimiterPool[K comparable](rps float64, burst int) *limiterPool[K] {
	pool := &limiterPool[K]{
		rps:   rps,
		burst: burst,
	}

	go pool.evictLoop(context.Background())

	return pool
}

// get retrieves or creates the token bucket for a key.
func (p *limiterPool[K]) get(key K) *rate.Limiter {
	if val, ok := p.entries.Load(key); ok {
		entry := val.(*limiterEntry)
		entry.lastAccess.Store(time.Now().UnixNano())
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter: rate.NewLimiter(rate.Limit(p.rps), p.burst),
	}
	entry.lastAccess.Store(time.Now().UnixNano())

	// First store wins when two requests race on a brand new key, so both
	// callers end up drawing from the same bucket.
	if existing, loaded := p.entries.LoadOrStore(key, entry); loaded {
		return existing.(*limiterEntry).limiter
	}
	return entry.limiter
}

// evictStale removes buckets whose last access predates the threshold.
func (p *limiterPool[K]) evictStale(threshold time.Time) {
	p.entries.Range(func(key, value any) bool {
		entry := value.(*limiterEntry)
		if time.Unix(0, entry.lastAccess.Load()).Before(threshold) {
			p.entries.Delete(key)
		}
		return true
	})
}

// evictLoop periodically sweeps stale buckets to keep memory bounded under
// client and IP churn.
func (p *limiterPool[K]) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterEvictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.evictStale(time.Now().Add(-limiterStaleAfter))
		}
	}
}

// tooManyRequests writes a 429 with a Retry-After hint derived from the bucket state.
func tooManyRequests(c *gin.Context, limiter *rate.Limiter, message string) {
	reservation := limiter.Reserve()
	retryAfter := int(reservation.Delay().Seconds())
	reservation.Cancel()

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "rate_limit_exceeded",
		"message": message,
	})
	c.Abort()
}

// RateLimitMiddleware enforces per-client rate limiting on authenticated requests.
//
// MUST be used after AuthenticationMiddleware (requires authenticated client in
// context). Uses token bucket algorithm via golang.org/x/time/rate. Each client
// gets an independent rate limiter based on their client ID.
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded (includes Retry-After header)
//   - Continues: Request allowed within rate limit
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	pool := newLimiterPool[uuid.UUID](rps, burst)

	return func(c *gin.Context) {
		client, ok := GetClient(c.Request.Context())
		if !ok || client == nil {
			// Authentication middleware should have caught this
			logger.Error("rate limit middleware: no authenticated client in context")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		limiter := pool.get(client.ID)
		if !limiter.Allow() {
			logger.Debug("client rate limit exceeded",
				slog.String("client_id", client.ID.String()))
			tooManyRequests(c, limiter, "Too many requests. Please retry after the specified delay.")
			return
		}

		c.Next()
	}
}

// IPRateLimitMiddleware enforces per-IP rate limiting on the credential endpoints
// (client login and capability token issuance), which see unauthenticated or
// freshly authenticated traffic and are the natural target for credential
// stuffing and token minting abuse.
//
// Uses c.ClientIP(), which resolves X-Forwarded-For, X-Real-IP, and the direct
// remote address in that order.
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded (includes Retry-After header)
//   - Continues: Request allowed within rate limit
func IPRateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	pool := newLimiterPool[string](rps, burst)

	return func(c *gin.Context) {
		callerIP := c.ClientIP()

		limiter := pool.get(callerIP)
		if !limiter.Allow() {
			logger.Debug("ip rate limit exceeded",
				slog.String("caller_ip", callerIP))
			tooManyRequests(c, limiter, "Too many requests from this address. Please retry after the specified delay.")
			return
		}

		c.Next()
	}
}
