// Package router assembles the public route table and the ops router.
package router

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/foodgram/gateway/internal/handler"
	"github.com/foodgram/gateway/internal/metrics"
	"github.com/foodgram/gateway/internal/middleware"
)

// Deps are the handlers and policies behind the public listener.
type Deps struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder

	// Proxy receives /api/ and /admin/.
	Proxy http.Handler
	// SPA, Docs and Media serve files from disk.
	SPA   http.Handler
	Docs  http.Handler
	Media http.Handler

	MaxBodySize   int64
	IsDevelopment bool
	CORSOrigins   []string

	// TrustedProxies may set X-Real-IP and X-Forwarded-*. Empty trusts none.
	TrustedProxies []netip.Prefix

	// RateLimiter is nil when rate limiting is off.
	RateLimiter    middleware.IPRateLimiter
	RateLimitRPS   int
	RateLimitBurst int
}

// New builds the public router. Routes, longest prefix first:
//
//	/api/docs/*  docs, redoc.html fallback
//	/api/*       backend
//	/admin/*     backend
//	/media/*     media files
//	/*           SPA with index.html fallback
func New(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNoop()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.TrustedRealIP(d.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger, d.IsDevelopment))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.ServerHeader)
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.IsDevelopment}))
	r.Use(middleware.MaxBodySize(d.MaxBodySize))

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.Logger,
		Limiter: d.RateLimiter,
		Metrics: d.Metrics,
		Enabled: d.RateLimiter != nil,
		RPS:     d.RateLimitRPS,
		Burst:   d.RateLimitBurst,
	}

	backend := r.With(
		middleware.CORS(middleware.DefaultCORSConfig(d.CORSOrigins)),
		middleware.RateLimitIP(rateLimitCfg),
	)

	r.Handle("/api/docs/*", d.Docs)
	backend.Handle("/api/*", d.Proxy)
	backend.Handle("/admin/*", d.Proxy)
	r.Handle("/media/*", d.Media)
	r.Handle("/*", d.SPA)

	return r
}

// OpsDeps are the handlers behind the ops listener.
type OpsDeps struct {
	Logger  *slog.Logger
	Handler *handler.Handler
	Health  *handler.HealthHandler
	// Metrics serves the Prometheus exposition. Nil omits /metrics.
	Metrics http.Handler
}

// NewOps builds the ops router: info, liveness, readiness and metrics.
func NewOps(d OpsDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer(d.Logger, false))
	r.Use(middleware.ServerHeader)

	r.Get("/", d.Handler.Info)
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.NotFound(d.Handler.NotFound)
	r.MethodNotAllowed(d.Handler.MethodNotAllowed)

	return r
}
