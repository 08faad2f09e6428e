package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
)

// RateCounter counts hits per key within a fixed window.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitObserver receives blocked requests.
type RateLimitObserver interface {
	RecordRateLimited(route string)
}

// RateLimitConfig bounds requests per client IP and route.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimit rejects clients exceeding cfg.Requests per window with 429. Counter
// failures let the request through.
func RateLimit(counter RateCounter, observer RateLimitObserver, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if counter == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		count, ttl, err := counter.Hit(c.Request.Context(), route+":"+c.ClientIP(), cfg.Window)
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(cfg.Requests) {
			if ttl <= 0 {
				ttl = cfg.Window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			if observer != nil {
				observer.RecordRateLimited(route)
			}
			abort(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
