package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/levipshemish/jewgo-api/internal/metrics"
	"github.com/levipshemish/jewgo-api/internal/ratelimit"
)

// KeyFunc derives the rate limit bucket key for a request.
type KeyFunc func(c *gin.Context) string

// KeyByIP buckets requests by client IP.
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyBySession buckets by user ID when a session is present, falling back to
// the client IP for anonymous requests. Must run after RequireAuth or
// OptionalAuth to see the session.
func KeyBySession(c *gin.Context) string {
	if claims, ok := GetClaims(c); ok {
		return claims.UserID
	}
	return c.ClientIP()
}

// RateLimit rejects requests once the key's token bucket runs dry, with a
// Retry-After header in whole seconds (rounded up, at least 1). The name
// labels the rejection counter.
func RateLimit(limiter *ratelimit.Limiter, name string, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := limiter.Allow(key(c))
		if !ok {
			metrics.RateLimited(name)
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			abortError(c, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		c.Next()
	}
}
