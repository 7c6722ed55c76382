package ratelimiter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type window struct {
	count   int
	resetAt time.Time
}

type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
	logger  *zap.SugaredLogger
	now     func() time.Time
}

var _ Limiter = (*FixedWindowRateLimiter)(nil)

func NewFixedWindowLimiter(limit int, windowSize time.Duration, logger *zap.SugaredLogger) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  windowSize,
		logger:  logger,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, exists := rl.clients[key]
	if !exists || !now.Before(w.resetAt) {
		rl.evictExpired(now)
		w = &window{resetAt: now.Add(rl.window)}
		rl.clients[key] = w
	}

	if w.count >= rl.limit {
		return false, w.resetAt.Sub(now), nil
	}

	w.count++
	return true, 0, nil
}

// Caller holds the lock
func (rl *FixedWindowRateLimiter) evictExpired(now time.Time) {
	for key, w := range rl.clients {
		if !now.Before(w.resetAt) {
			delete(rl.clients, key)
		}
	}
}
