package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/response"
)

var errTooManyRequests = errors.New("too many requests")

// RateLimitMiddleware rejects requests with 429 once the shared token bucket
// is empty. A nil limiter disables the check.
func RateLimitMiddleware(limiter *rate.Limiter, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}
		logctx.FromGin(c, base).Warnw("rate limit exceeded", "path", c.FullPath())
		c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Fail("Too many requests", errTooManyRequests))
	}
}

// NewLimiter builds a limiter allowing rps requests per second with the given
// burst. rps <= 0 disables limiting.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
