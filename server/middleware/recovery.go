package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/logger"
)

// Recovery returns middleware that turns a handler panic into a 500
// with the standard error envelope and logs the stack. A nil log falls
// back to the global logger.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				fields := logger.Fields(
					"error", err.Error(),
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP(),
				)
				if id := c.GetString(RequestIDKey); id != "" {
					fields["request_id"] = id
				}
				if log != nil {
					log.Error("handler panic recovered", fields)
				} else {
					logger.Error("handler panic recovered", fields)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.Internal(err).ToResponse())
			}
		}()
		c.Next()
	}
}
