package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/logger"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
	"go.uber.org/zap"
)

// Counter counts requests per key in the current fixed window.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

type RateLimiter struct {
	counter Counter
	limit   int64
	timeout time.Duration
}

func NewRateLimiter(counter Counter, limit int) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		timeout: 200 * time.Millisecond,
	}
}

// RateLimitMiddleware limits requests per authenticated user, falling back to
// the client IP. Counter failures let the request through.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			ctx, cancel := context.WithTimeout(r.Context(), limiter.timeout)
			defer cancel()

			count, err := limiter.counter.Incr(ctx, key)
			if err != nil {
				logger.Warn("rate limit counter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count > limiter.limit {
				httputils.WriteAPIError(w, r, constants.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if id, ok := auth.GetIdentity(r.Context()); ok && id.UserID != "" {
		return "user:" + id.UserID
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:unknown"
}
