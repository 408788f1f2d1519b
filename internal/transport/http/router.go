package http

import (
	"net/http"
	"strings"

	"github.com/IgorGrieder/shortlinks/internal/config"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/shortlinks/internal/processing/links"
	"github.com/IgorGrieder/shortlinks/internal/processing/users"
	"github.com/IgorGrieder/shortlinks/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// spanNames is keyed by the mux pattern, which already carries the method.
var spanNames = map[string]string{
	"GET /health":                "health",
	"GET /metrics":               "metrics",
	"POST /api/auth/register":    "auth.register",
	"POST /api/auth/login":       "auth.login",
	"GET /api/auth/me":           "auth.me",
	"POST /api/links":            "links.create",
	"GET /api/links":             "links.list",
	"GET /api/links/{key}":       "links.get",
	"PATCH /api/links/{key}":     "links.update",
	"DELETE /api/links/{key}":    "links.delete",
	"GET /api/links/{key}/stats": "links.stats",
	"GET /api/links/{key}/qr":    "links.qr",
	"GET /api/admin/links":       "admin.links.list",
	"GET /{key}":                 "links.redirect",
}

type Dependencies struct {
	Links *links.Service
	Users *users.Service

	// RateCounter backs the create-link rate limit. Nil disables it.
	RateCounter  middleware.Counter
	HealthChecks map[string]HealthCheck
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool

	LinksHandlerOptions LinksHandlerOptions
}

func DefaultRouterOptions(cfg *config.Config) RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
		LinksHandlerOptions: LinksHandlerOptions{
			RedirectStatus: cfg.Shortener.RedirectStatus,
			AsyncClick:     true,
		},
	}
}

func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	return NewRouterWithOptions(cfg, deps, DefaultRouterOptions(cfg))
}

func NewRouterWithOptions(cfg *config.Config, deps Dependencies, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(deps.HealthChecks)
	linksHandler := NewLinksHandler(deps.Links, opts.LinksHandlerOptions)
	usersHandler := NewUsersHandler(deps.Users)
	adminHandler := NewAdminHandler(linksHandler)

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", healthHandler.Metrics())

	mux.HandleFunc("POST /api/auth/register", usersHandler.Register)
	mux.HandleFunc("POST /api/auth/login", usersHandler.Login)

	requireUser := middleware.AuthMiddleware(deps.Users)
	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, requireUser)
	}

	createMiddlewares := []func(http.Handler) http.Handler{requireUser}
	if deps.RateCounter != nil && cfg.Security.CreateRateLimit > 0 {
		limiter := middleware.NewRateLimiter(deps.RateCounter, cfg.Security.CreateRateLimit)
		createMiddlewares = append(createMiddlewares, middleware.RateLimitMiddleware(limiter))
	}

	mux.Handle("GET /api/auth/me", authed(usersHandler.Me))
	mux.Handle("POST /api/links", middleware.Chain(
		http.HandlerFunc(linksHandler.Create),
		createMiddlewares...,
	))
	mux.Handle("GET /api/links", authed(linksHandler.List))
	mux.Handle("GET /api/links/{key}", authed(linksHandler.Get))
	mux.Handle("PATCH /api/links/{key}", authed(linksHandler.Update))
	mux.Handle("DELETE /api/links/{key}", authed(linksHandler.Delete))
	mux.Handle("GET /api/links/{key}/stats", authed(linksHandler.Stats))
	mux.Handle("GET /api/links/{key}/qr", authed(linksHandler.QRCode))

	mux.Handle("GET /api/admin/links", middleware.Chain(
		http.HandlerFunc(adminHandler.ListLinks),
		middleware.APIKeyMiddleware(cfg.Security.AdminAPIKeys),
	))

	mux.HandleFunc("GET /{key}", linksHandler.Redirect)

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORSMiddleware(cfg.Server.CORSOrigins)(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(spanName),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}

func spanName(_ string, r *http.Request) string {
	if name, ok := spanNames[r.Pattern]; ok {
		return name
	}
	if r.Pattern != "" {
		return r.Pattern
	}
	path := strings.TrimSpace(r.URL.Path)
	if path == "" {
		path = "/"
	}
	return path
}
