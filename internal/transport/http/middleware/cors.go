package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware builds an rs/cors handler. A "*" entry (or no entries)
// reflects any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"Authorization",
			"X-API-Key",
			"Accept",
			"Origin",
			"X-Requested-With",
			"X-Correlation-Id",
			// OpenTelemetry headers
			"traceparent",
			"tracestate",
			"baggage",
		},
		ExposedHeaders:   []string{"X-Correlation-Id"},
		AllowCredentials: true,
	}

	if allowAny(allowedOrigins) {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = allowedOrigins
	}

	return cors.New(opts).Handler
}

func allowAny(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
