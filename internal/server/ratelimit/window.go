// Package ratelimit throttles the unauthenticated auth endpoints: a Redis
// fixed-window counter per reset-request email and an in-process token
// bucket per client IP.
package ratelimit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Limiter admits or rejects one event for key. Rejections return
// common.ErrRateLimited.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}

// Noop admits everything.
type Noop struct{}

func (Noop) Allow(context.Context, string) error { return nil }

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// WindowLimiter allows max events per key in each fixed window. When Redis
// is unreachable it logs a warning and admits the event.
type WindowLimiter struct {
	redis  counter
	prefix string
	window time.Duration
	max    int64
	logger logging.Logger
}

func NewWindowLimiter(client redis.Cmdable, prefix string, window time.Duration, max int, logger logging.Logger) *WindowLimiter {
	return &WindowLimiter{
		redis:  client,
		prefix: prefix,
		window: window,
		max:    int64(max),
		logger: logger.With("module", "ratelimit"),
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) error {
	k := l.prefix + key

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		l.logger.Warn(ctx, "rate limiter unavailable, admitting request", "error", err)
		return nil
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.window).Err(); err != nil {
			l.logger.Warn(ctx, "rate limiter expire failed", "key", k, "error", err)
		}
	}

	if count > l.max {
		return common.ErrRateLimited
	}
	return nil
}
