package middleware

import (
	"context"
	"fmt"
	"log"
	"time"

	"anoa.com/aiiforsaxp/pkg/apperror"
	"anoa.com/aiiforsaxp/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CheckAndSetRateLimit reports whether the user may perform action now and,
// if so, blocks it for the next window. A nil client never limits.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string, window time.Duration) (bool, error) {
	if rdb == nil || window <= 0 {
		return true, nil
	}

	wasSet, err := rdb.SetNX(ctx, rateLimitKey(userID, action), "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, action string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	return rdb.TTL(ctx, rateLimitKey(userID, action)).Result()
}

func rateLimitKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), action)
}

// RateLimit allows one request per window per user for action. Redis
// failures let the request through.
func RateLimit(rdb *redis.Client, action string, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		allowed, err := CheckAndSetRateLimit(c.Request.Context(), rdb, userID, action, window)
		if err != nil {
			log.Printf("⚠️ Rate limit check failed for %s: %v", action, err)
			c.Next()
			return
		}
		if !allowed {
			if ttl, err := GetRateLimitTTL(c.Request.Context(), rdb, userID, action); err == nil && ttl > 0 {
				c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			}
			response.ResponseError(c, apperror.ErrRateLimitExceeded)
			c.Abort()
			return
		}

		c.Next()
	}
}
