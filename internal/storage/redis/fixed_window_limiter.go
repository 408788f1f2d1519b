package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type FixedWindowLimiter struct {
	client redis.Cmdable
	prefix string
	window time.Duration
	now    func() time.Time
}

func NewFixedWindowLimiter(client redis.Cmdable, prefix string, window time.Duration) *FixedWindowLimiter {
	if prefix == "" {
		prefix = "rate"
	}
	if window < time.Second {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		window: window,
		now:    time.Now,
	}
}

// Incr increments the counter for (key, current window) and returns the current count.
func (l *FixedWindowLimiter) Incr(ctx context.Context, key string) (int64, error) {
	redisKey := l.bucketKey(key)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		// The bucket is part of the key; the TTL only cleans up old windows.
		pipe.Expire(ctx, redisKey, 2*l.window)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (l *FixedWindowLimiter) bucketKey(key string) string {
	if key == "" {
		key = "unknown"
	}
	windowSeconds := int64(l.window / time.Second)
	bucket := l.now().UTC().Unix() / windowSeconds
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
}
