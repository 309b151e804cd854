package middleware

import (
	"github.com/SeopE9611/sub010-backend/pkg/telemetry/correlation"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

// RequestID tags each request with a correlation id, honoring one supplied
// by the caller so ids stay stable across service hops.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = ulid.Make().String()
		}

		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Request = c.Request.WithContext(correlation.ContextWithCorrelationID(c.Request.Context(), rid))

		c.Next()
	}
}
