package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/voicekit/errors"
	"github.com/skillsenselab/voicekit/resilience"
)

// ResilienceView is the combined snapshot served by the resilience endpoint.
type ResilienceView struct {
	Buckets  []resilience.BucketStat  `json:"buckets"`
	Breakers []resilience.BreakerStat `json:"breakers"`
}

// Resilience returns a handler reporting the rate limiter's bucket levels
// and the recovery engine's circuit states.
func Resilience(limiter *resilience.RateLimiter, engine *resilience.RecoveryEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ResilienceView{
			Buckets:  limiter.Snapshot(),
			Breakers: engine.Breakers().Snapshot(),
		})
	}
}

// CapacityRequest is the body of a capacity adjustment call. Key names one
// bucket, or "*" for every existing bucket.
type CapacityRequest struct {
	Key        string  `json:"key"`
	Multiplier float64 `json:"multiplier"`
}

// AdjustCapacity returns a handler that scales a bucket's capacity and
// refill rate by the requested multiplier and reports the updated buckets.
func AdjustCapacity(limiter *resilience.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CapacityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondWithError(c, apperrors.Validation("request body must be JSON with key and multiplier"))
			return
		}
		if req.Key == "" {
			RespondWithError(c, apperrors.MissingField("key"))
			return
		}

		var err error
		if req.Key == "*" {
			err = limiter.AdjustAllCapacity(req.Multiplier)
		} else {
			err = limiter.AdjustCapacity(req.Key, req.Multiplier)
		}
		if err != nil {
			RespondWithError(c, apperrors.Validation(err.Error()))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"key":        req.Key,
			"multiplier": req.Multiplier,
			"buckets":    limiter.Snapshot(),
		})
	}
}
