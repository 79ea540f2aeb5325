package middleware

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/adityakmrtiwari/CliNote/pkg/metrics"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// per-key limiter store (simple in-memory token-bucket)
var limiterStore sync.Map // map[string]*rate.Limiter

// getLimiter returns (and lazily creates) a token-bucket limiter for the given key.
// Limits are part of the store key so differently configured groups never share a bucket.
func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	k := fmt.Sprintf("%s|%g|%d", key, rps, burst)
	if v, ok := limiterStore.Load(k); ok {
		return v.(*rate.Limiter)
	}
	v, _ := limiterStore.LoadOrStore(k, rate.NewLimiter(rate.Limit(rps), burst))
	return v.(*rate.Limiter)
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// Mounted after AuthMiddleware, requests are keyed by user id; elsewhere by client IP.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := getLimiter(subjectKey(c), rps, burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			response.Abort(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
