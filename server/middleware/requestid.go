package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/voicekit/logger"
)

// RequestIDKey is the gin context key the request logger reads the id from.
const RequestIDKey = "request_id"

// RequestID tags every control-server request with an X-Request-Id header,
// honoring one supplied by the caller. The id ties an access-log line to
// the audit events the handled request produced. It is also stamped into
// the request context so logger.WithContext picks it up in handlers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
