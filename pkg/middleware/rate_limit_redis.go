package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/adityakmrtiwari/CliNote/pkg/metrics"
	"github.com/adityakmrtiwari/CliNote/pkg/response"
)

// RateLimitPrefix namespaces limiter counters in a shared Redis.
const RateLimitPrefix = "clinote:rl:"

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter shared by all replicas.
// It INCRs a per-window key and compares against allowed = floor(rps*windowSeconds)+burst.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	windowSeconds := int(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowedPerWindow := int(rps*float64(windowSeconds)) + burst
	return func(c *gin.Context) {
		bucket := time.Now().Unix() / int64(windowSeconds)
		redisKey := fmt.Sprintf("%s%s:%d", RateLimitPrefix, subjectKey(c), bucket)

		cnt, err := client.Incr(c.Request.Context(), redisKey).Result()
		if err != nil {
			response.Abort(c, http.StatusInternalServerError, "Rate limit check failed", err)
			return
		}
		if cnt == 1 {
			_ = client.Expire(c.Request.Context(), redisKey, time.Duration(windowSeconds+1)*time.Second).Err()
		}
		if int(cnt) > allowedPerWindow {
			c.Header("Retry-After", fmt.Sprintf("%d", windowSeconds))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			response.Abort(c, http.StatusTooManyRequests, "Rate limit exceeded", nil)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
