package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
)

const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards admin routes. With no keys configured every request
// is refused.
func APIKeyMiddleware(allowedKeys []string) func(http.Handler) http.Handler {
	allowed := make([][]byte, 0, len(allowedKeys))
	for _, k := range allowedKeys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		allowed = append(allowed, []byte(k))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowed) == 0 {
				httputils.WriteAPIError(w, r, constants.ErrForbidden)
				return
			}

			apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if apiKey == "" || !keyAllowed(allowed, []byte(apiKey)) {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func keyAllowed(allowed [][]byte, key []byte) bool {
	ok := 0
	for _, k := range allowed {
		ok |= subtle.ConstantTimeCompare(k, key)
	}
	return ok == 1
}
