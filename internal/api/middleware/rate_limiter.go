// Package middleware holds gin middleware shared by the HTTP routes.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"civiclens/backend/internal/localization"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitedKey = "error.rate_limited"

// SubmissionRateLimiter caps complaint submissions per client IP inside a
// fixed window. A nil client or a non-positive limit disables the check.
// Redis errors let the request through so intake keeps working without it.
func SubmissionRateLimiter(rdb *redis.Client, localizer *localization.Localizer, prefix string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := prefix + ":" + c.ClientIP()

		var (
			incr *redis.IntCmd
			ttl  *redis.DurationCmd
		)
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		// A key without a TTL starts its window now, even if an earlier
		// EXPIRE was lost.
		retryAfter := ttl.Val()
		if retryAfter < 0 {
			retryAfter = window
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("Failed to set rate limit window", zap.String("key", key), zap.Error(err))
			}
		}

		if incr.Val() > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       rateLimitedMessage(localizer, c.GetHeader("Accept-Language")),
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}

func rateLimitedMessage(l *localization.Localizer, acceptLanguage string) string {
	if l == nil {
		return "rate limit exceeded"
	}
	return l.GetString(l.FromAcceptLanguage(acceptLanguage), rateLimitedKey)
}
