package ratelimiter

import (
	"context"
	"time"

	"github.com/SeakMengs/certportal/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Limiter interface {
	// Allow counts one request for key. When it returns false, the duration is
	// how long the caller has to wait before the window resets.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// NewRateLimiter returns a Redis backed limiter when a client is given so that
// all api replicas share one window, and an in-memory one otherwise.
func NewRateLimiter(limit int, window time.Duration, rdb *redis.Client, prefix string, logger *zap.SugaredLogger) Limiter {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if rdb != nil {
		logger.Infof("Using redis rate limiter %q: %d requests per %s", prefix, limit, window)
		return NewRedisFixedWindowLimiter(rdb, prefix, limit, window, logger)
	}

	logger.Infof("Using in-memory rate limiter %q: %d requests per %s", prefix, limit, window)
	return NewFixedWindowLimiter(limit, window, logger)
}

// NewRateLimiters builds the global limiter and the stricter one for public endpoints.
func NewRateLimiters(cfg config.RateLimiterConfig, rdb *redis.Client, logger *zap.SugaredLogger) (global Limiter, public Limiter) {
	global = NewRateLimiter(cfg.RequestsPerTimeFrame, cfg.TimeFrame, rdb, "global", logger)
	public = NewRateLimiter(cfg.PublicRequestsPerTimeFrame, cfg.TimeFrame, rdb, "public", logger)
	return global, public
}
