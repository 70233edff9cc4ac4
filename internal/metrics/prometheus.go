package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foodgram"
const subsystem = "gateway"

// PrometheusRecorder implements Recorder on a dedicated Prometheus registry.
//
// Metrics:
//   - foodgram_gateway_http_requests_total{route,method,status}
//   - foodgram_gateway_http_request_duration_seconds{route}
//   - foodgram_gateway_proxy_errors_total{kind}
//   - foodgram_gateway_static_fallbacks_total{route}
//   - foodgram_gateway_index_reloads_total
//   - foodgram_gateway_rate_limited_total
type PrometheusRecorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	proxyErrors     *prometheus.CounterVec
	fallbacks       *prometheus.CounterVec
	indexReloads    prometheus.Counter
	rateLimited     prometheus.Counter
}

// NewPrometheus creates and registers gateway metrics.
// If registry is nil, a new registry with Go and process collectors is created.
func NewPrometheus(registry *prometheus.Registry) *PrometheusRecorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	p := &PrometheusRecorder{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the gateway",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route"},
		),
		proxyErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "proxy_errors_total",
				Help:      "Total number of failed backend round trips",
			},
			[]string{"kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "static_fallbacks_total",
				Help:      "Total number of fallback documents served",
			},
			[]string{"route"},
		),
		indexReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "index_reloads_total",
			Help:      "Total number of index.html reloads from disk",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}

	registry.MustRegister(
		p.requestsTotal,
		p.requestDuration,
		p.proxyErrors,
		p.fallbacks,
		p.indexReloads,
		p.rateLimited,
	)

	return p
}

// ObserveRequest records a completed request.
func (p *PrometheusRecorder) ObserveRequest(route, method string, status int, duration time.Duration) {
	p.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncProxyError records a failed backend round trip.
func (p *PrometheusRecorder) IncProxyError(kind string) {
	p.proxyErrors.WithLabelValues(kind).Inc()
}

// IncFallbackServed records a fallback document response.
func (p *PrometheusRecorder) IncFallbackServed(route string) {
	p.fallbacks.WithLabelValues(route).Inc()
}

// IncIndexReload records an index.html reload.
func (p *PrometheusRecorder) IncIndexReload() {
	p.indexReloads.Inc()
}

// IncRateLimited records a rate limited request.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}

// Handler returns the Prometheus exposition endpoint for this registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}
