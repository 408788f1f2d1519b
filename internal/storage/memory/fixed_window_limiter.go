package memory

import (
	"context"
	"sync"
	"time"
)

// FixedWindowLimiter counts per key within the current window. Counters from
// earlier windows are dropped when the window rolls over.
type FixedWindowLimiter struct {
	mu     sync.Mutex
	window time.Duration
	bucket int64
	counts map[string]int64
	now    func() time.Time
}

func NewFixedWindowLimiter(window time.Duration) *FixedWindowLimiter {
	if window < time.Second {
		window = time.Minute
	}
	return &FixedWindowLimiter{
		window: window,
		counts: make(map[string]int64),
		now:    time.Now,
	}
}

func (l *FixedWindowLimiter) Incr(_ context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket := l.now().UnixNano() / int64(l.window)
	if bucket != l.bucket {
		l.bucket = bucket
		clear(l.counts)
	}

	l.counts[key]++
	return l.counts[key], nil
}
