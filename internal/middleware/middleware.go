package middleware

import (
	appcontext "github.com/SeakMengs/certportal/internal/app_context"
	ratelimiter "github.com/SeakMengs/certportal/internal/rate_limiter"
)

type Middleware struct {
	rateLimiter       ratelimiter.Limiter
	publicRateLimiter ratelimiter.Limiter
	app               *appcontext.Application
}

func NewMiddleware(app *appcontext.Application,
	rateLimiter ratelimiter.Limiter,
	publicRateLimiter ratelimiter.Limiter,
) *Middleware {
	return &Middleware{app: app, rateLimiter: rateLimiter, publicRateLimiter: publicRateLimiter}
}
