package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/foodgram/gateway/internal/metrics"
)

// RouteFor maps a request path to its route label, longest prefix first.
func RouteFor(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/docs/"):
		return metrics.RouteDocs
	case strings.HasPrefix(path, "/api/"):
		return metrics.RouteAPI
	case strings.HasPrefix(path, "/admin/"):
		return metrics.RouteAdmin
	case strings.HasPrefix(path, "/media/"):
		return metrics.RouteMedia
	case strings.HasPrefix(path, "/"):
		return metrics.RouteSPA
	default:
		return metrics.RouteOther
	}
}

// Metrics returns a middleware that records request counts and durations.
func Metrics(recorder metrics.Recorder) func(http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			recorder.ObserveRequest(RouteFor(r.URL.Path), methodLabel(r.Method), wrapped.status, time.Since(start))
		})
	}
}

// methodLabel keeps the method label set bounded.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return method
	default:
		return "OTHER"
	}
}
