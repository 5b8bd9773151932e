package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit caps requests per caller within a sliding window, keyed by
// session id when present so one chatty session cannot starve others.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		key := "rate_limit:" + c.ClientIP()
		if sessionID := c.Param("session_id"); sessionID != "" {
			key = "rate_limit:session:" + sessionID
		}

		current, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Rate limiting is advisory; a broken Redis must not take
			// the conversation endpoint down with it.
			c.Next()
			return
		}

		if current == 1 {
			rdb.Expire(ctx, key, window)
		}

		if current > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
