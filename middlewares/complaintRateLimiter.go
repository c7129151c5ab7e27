package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wardsync/cache"
	"wardsync/metrics"
)

const complaintWindow = 24 * time.Hour

// ComplaintRateLimiter caps how many complaints one user may file per day.
// It must run after AuthMiddleware.
func ComplaintRateLimiter(counter cache.Counter, prefix string, limit int, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		// Create individual key for each user
		userKey := prefix + ":" + sess.UserID.Hex()

		count, retryAfter, err := counter.Incr(c.Request.Context(), userKey, complaintWindow)
		if err != nil {
			logger.Error("rate limit counter failed", zap.String("key", userKey), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			return
		}

		if count > int64(limit) {
			m.RateLimited.Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
