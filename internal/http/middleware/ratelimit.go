// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one bucket
// per web session (or client IP before a session exists). The limiter is
// process-local.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyBySessionOrIP prefers the verified session id set by the session cookie
// middleware and falls back to the client IP address.
func KeyBySessionOrIP() keyFunc {
	return func(c *gin.Context) string {
		if sid, ok := SessionID(c); ok {
			return "session:" + sid
		}
		return "ip:" + c.ClientIP()
	}
}

// KeyByIP keys buckets on the client IP only. Used for the webhook routes,
// which carry no cookie.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter. Buckets idle
// for longer than the TTL are swept at most once per TTL. Safe for
// concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	skip  func(*gin.Context) bool

	mu        sync.Mutex
	visitors  map[string]*visitor
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter constructs a RateLimiter with the given tokens-per-second
// and burst size, keyed by keyFn. A burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		keyFn:     keyFn,
		visitors:  make(map[string]*visitor),
		ttl:       10 * time.Minute,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Skip exempts requests for which fn returns true. It returns rl.
func (rl *RateLimiter) Skip(fn func(*gin.Context) bool) *RateLimiter {
	rl.skip = fn
	return rl
}

// getVisitor returns (and touches) the limiter for key, creating it if
// absent. The sweep runs before the lookup so a stale bucket for key is
// replaced with a full one.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.ttl {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay of a completed request, which is never limited.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns a Gin middleware that enforces per-key token-bucket limits.
// A denied request gets 429 with Retry-After (whole seconds until the next
// token) and the standard error envelope.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || (rl.skip != nil && rl.skip(c)) {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		r := lim.Reserve()
		if r.OK() && r.Delay() == 0 {
			c.Next()
			return
		}
		wait := r.Delay()
		r.Cancel()

		c.Header("Retry-After", retryAfter(wait, r.OK()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"error":      "rate limit exceeded",
		})
	}
}

// retryAfter formats wait as whole seconds, at least 1. An impossible
// reservation (rps 0) advertises one minute.
func retryAfter(wait time.Duration, ok bool) string {
	if !ok {
		return "60"
	}
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
