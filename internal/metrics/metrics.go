// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Route labels used by the gateway.
const (
	RouteDocs  = "docs"
	RouteAPI   = "api"
	RouteAdmin = "admin"
	RouteMedia = "media"
	RouteSPA   = "spa"
	RouteOther = "other"
)

// Proxy error kinds.
const (
	ProxyErrorUnavailable  = "unavailable"
	ProxyErrorTimeout      = "timeout"
	ProxyErrorBodyTooLarge = "body_too_large"
	ProxyErrorCanceled     = "canceled"
)

// Recorder captures metric events for the gateway.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// HTTP metrics
	ObserveRequest(route, method string, status int, duration time.Duration)

	// Proxy metrics
	IncProxyError(kind string)

	// Static serving metrics
	IncFallbackServed(route string)
	IncIndexReload()

	// Rate limiting
	IncRateLimited()
}
