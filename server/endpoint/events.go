package endpoint

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillsenselab/voicekit/sse"
)

// Events returns a handler attaching the caller to the live audit event
// feed. Client IDs carry the "events:" prefix the audit bridge broadcasts
// to, so every subscriber sees every event.
func Events(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := "events:" + uuid.NewString()
		sse.ServeSSE(hub, c.Writer, c.Request, clientID,
			sse.WithMetadata("remote_addr", c.ClientIP()),
		)
	}
}
