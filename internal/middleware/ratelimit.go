package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"glimo/pkg/auth"
	"glimo/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRateLimiter limits each session user to limit on the routes it guards.
// prefix separates the counters of different route groups.
func NewRateLimiter(rdb redis.UniversalClient, prefix string, limit redis_rate.Limit) *RateLimiter {
	return &RateLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   limit,
		prefix:  prefix,
	}
}

func PerMinute(rate int) redis_rate.Limit {
	return redis_rate.PerMinute(rate)
}

func (rl *RateLimiter) key(c *gin.Context) string {
	if user, ok := auth.UserFromContext(c); ok {
		return fmt.Sprintf("ratelimit:%s:user:%s", rl.prefix, user.ID)
	}
	return fmt.Sprintf("ratelimit:%s:ip:%s", rl.prefix, c.ClientIP())
}

// Handler fails open when Redis is unavailable.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.key(c)

		res, err := rl.limiter.Allow(c.Request.Context(), key, rl.limit)
		if err != nil {
			logger.Logger().Warn("rate limiter error, failing open",
				zap.Error(err),
				zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
