package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/tool"
)

const HeaderRequestID = "X-Request-ID"

// TraceMiddleware assigns a trace id to every request. A client supplied
// X-Request-ID is kept; otherwise a UUIDv7 is generated. The id is stored in
// gin.Context and in the request context under logctx.KeyTraceID.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(HeaderRequestID)
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set(logctx.KeyTraceID, traceID)
		ctx := context.WithValue(c.Request.Context(), logctx.KeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
