package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inboxlab/mailbridge/internal/tracing"
)

// TracingMiddleware creates a new span for each request and adds common tags
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(
			c.Request.Context(),
			c.Request.Method+" "+c.FullPath(),
			c.Request.Header,
		)
		defer span.Finish()

		tracing.TagComponentRest(span)

		// Store span in context
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		span.SetTag("http.status_code", c.Writer.Status())
		if c.Writer.Status() >= http.StatusBadRequest {
			span.SetTag("error", true)
		}
	}
}
