package middleware

import (
	"net/http"
	"time"

	"infinite-pages/internal/models"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter builds a Redis-backed per-minute limiter keyed by user when
// authenticated and by client IP otherwise. Generation endpoints get their
// own, much lower limit than the global one.
func RateLimiter(redisClient *redis.Client, limitPerMinute int, logger *zap.Logger) gin.HandlerFunc {
	store := rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: redisClient,
		Rate:        time.Minute,
		Limit:       uint(limitPerMinute),
	})

	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			logger.Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeRateLimited,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			if raw, ok := c.Get("user_id"); ok {
				if id, ok := raw.(uuid.UUID); ok {
					return id.String()
				}
			}
			return c.ClientIP()
		},
	})
}
