package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisFixedWindowLimiter counts requests with INCR on a key that expires with
// the window.
type RedisFixedWindowLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	logger *zap.SugaredLogger
}

var _ Limiter = (*RedisFixedWindowLimiter)(nil)

func NewRedisFixedWindowLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, logger *zap.SugaredLogger) *RedisFixedWindowLimiter {
	return &RedisFixedWindowLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (rl *RedisFixedWindowLimiter) redisKey(key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", rl.prefix, key)
}

func (rl *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := rl.redisKey(key)

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		// Only the first request of a window sets the expiry
		pipe.ExpireNX(ctx, redisKey, rl.window)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.logger.Errorf("Redis rate limiter error for %s: %v", redisKey, err)
		return false, 0, err
	}

	if incr.Val() > int64(rl.limit) {
		retryAfter := ttl.Val()
		if retryAfter <= 0 {
			retryAfter = rl.window
		}
		return false, retryAfter, nil
	}

	return true, 0, nil
}
