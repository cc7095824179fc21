package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"cleanservice/internal/pkg/response"
	"cleanservice/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*ratelimit.Result, error)
}

// RateLimit throttles requests per client IP within scope. A nil limiter
// disables throttling and limiter errors fail open.
func RateLimit(limiter Limiter, scope string, perMinute, burst int) gin.HandlerFunc {
	rate := float64(perMinute) / 60
	return func(c *gin.Context) {
		if limiter == nil || isNilLimiter(limiter) {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP(), rate, burst)
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, please try again later")
			return
		}
		c.Next()
	}
}

func isNilLimiter(l Limiter) bool {
	tb, ok := l.(*ratelimit.TokenBucket)
	return ok && tb == nil
}
