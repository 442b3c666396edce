package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/tcg-chat/internal/store/redisstore"
)

const rateWindow = time.Minute

// Counter is a shared fixed-window counter such as redisstore.Store.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit allows limit requests per user per minute. It must run after
// AuthRequired. A limit of zero or less disables it, and counter failures let
// the request through.
func RateLimit(counter Counter, limit int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserID(c)
		if limit <= 0 || counter == nil || !ok {
			c.Next()
			return
		}

		n, err := counter.Incr(c.Request.Context(), redisstore.RateKey(uid, time.Now(), rateWindow), rateWindow)
		if err != nil {
			log.Warn().Err(err).Uint64("user_id", uid).Msg("rate limit counter unavailable")
			c.Next()
			return
		}

		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(rateWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
