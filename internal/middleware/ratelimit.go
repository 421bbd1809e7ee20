package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/pkg/response"
)

// Counter counts hits in a fixed window. *redis.Client satisfies it.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows max requests per client IP and window for one route group.
// Authenticated requests are not limited; counter failures let requests through.
func RateLimit(counter Counter, scope string, max int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		slot := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("cover:rate_limit:%s:%s:%d", scope, ip, slot)
		count, err := counter.Hit(c.Request.Context(), key, window+time.Second)
		if err != nil {
			log.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count > max {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())+1))
			response.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
