package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/voicekit/util"
)

const defaultMaxBodySize = 64 * 1024 // 64KB

// BodySizeLimit returns middleware that restricts the request body to the
// given size string (e.g. "64KB", "1MB"). Control requests carry at most a
// few fields of JSON.
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}
