package middleware

import (
	"net/http"
	"strings"

	"github.com/IgorGrieder/shortlinks/internal/constants"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/pkg/httputils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Authenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// puts the caller's identity on the request context.
func AuthMiddleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			id, err := a.Authenticate(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("enduser.id", id.UserID))
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
