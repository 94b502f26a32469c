package middleware

import (
	"net/http"

	"training-erp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit returns a windowed rate limiter for the costing routes. The
// key is the authenticated user when RequireRole/RequirePermission ran
// earlier in the chain, otherwise the client IP.
func RateLimit(formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		panic("invalid rate limit format '" + formatted + "': " + err.Error())
	}

	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			if userID, ok := c.Get("userID"); ok {
				if id, ok := userID.(string); ok && id != "" {
					return id
				}
			}
			return c.ClientIP()
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.JSON(http.StatusTooManyRequests,
				response.Error(http.StatusTooManyRequests, "Too many requests, slow down"))
		}),
	)
}
