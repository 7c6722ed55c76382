package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	ratelimiter "github.com/SeakMengs/certportal/internal/rate_limiter"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	m.limit(ctx, m.rateLimiter)
}

// Stricter limit for the unauthenticated search and email endpoints
func (m Middleware) PublicRateLimiterMiddleware(ctx *gin.Context) {
	m.limit(ctx, m.publicRateLimiter)
}

func (m Middleware) limit(ctx *gin.Context, limiter ratelimiter.Limiter) {
	if !m.app.Config.RateLimiter.Enabled || limiter == nil {
		ctx.Next()
		return
	}

	allowed, retryAfter, err := limiter.Allow(ctx, ctx.ClientIP())
	if err != nil {
		// Do not lock everyone out when the limiter backend is down
		m.app.Logger.Errorf("Rate limiter error: %v", err)
		ctx.Next()
		return
	}

	if !allowed {
		ctx.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Too many requests",
			util.GenerateErrorMessages(fmt.Errorf("rate limit exceeded, retry after %s", retryAfter.Round(time.Second)), "rateLimit"), nil)
		return
	}

	ctx.Next()
}
