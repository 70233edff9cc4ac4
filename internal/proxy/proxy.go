// Package proxy forwards API and admin traffic to the backend service.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/foodgram/gateway/internal/metrics"
	"github.com/foodgram/gateway/internal/middleware"
)

// StatusClientClosedRequest is logged when the client goes away before the
// backend answers. It is never seen by the client.
const StatusClientClosedRequest = 499

// Error codes written by the proxy.
const (
	CodeBadGateway     = "BAD_GATEWAY"
	CodeGatewayTimeout = "GATEWAY_TIMEOUT"
)

// Config configures a Proxy.
type Config struct {
	// Backend is the base URL requests are forwarded to. Its path, if any,
	// is prefixed to the request path.
	Backend *url.URL

	// DialTimeout bounds TCP connection setup to the backend.
	DialTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for backend response headers.
	ResponseHeaderTimeout time.Duration

	// Transport overrides the backend transport. Tests use it.
	Transport http.RoundTripper
}

// Proxy is a reverse proxy to a single backend that keeps the client's
// Host header, like nginx "proxy_set_header Host $host".
type Proxy struct {
	backend   *url.URL
	rp        *httputil.ReverseProxy
	transport http.RoundTripper
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// New creates a Proxy for cfg.Backend.
func New(cfg Config, logger *slog.Logger, recorder metrics.Recorder) (*Proxy, error) {
	if cfg.Backend == nil || cfg.Backend.Scheme == "" || cfg.Backend.Host == "" {
		return nil, fmt.Errorf("backend URL must be absolute, got %v", cfg.Backend)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newTransport(cfg.DialTimeout, cfg.ResponseHeaderTimeout)
	}

	p := &Proxy{
		backend:   cfg.Backend,
		transport: transport,
		logger:    logger.With("component", "proxy", "backend", cfg.Backend.Host),
		metrics:   recorder,
	}

	p.rp = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		Transport:      transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
		ErrorLog:       slog.NewLogLogger(p.logger.Handler(), slog.LevelWarn),
	}

	return p, nil
}

func newTransport(dialTimeout, responseHeaderTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     false,
	}
}

// ServeHTTP forwards the request to the backend.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

// rewrite builds the outbound request. The path is passed through
// unchanged and the inbound Host is kept.
func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(p.backend)
	pr.Out.Host = pr.In.Host

	ip := clientIP(pr.In)
	xff := ip
	if prior := pr.In.Header.Values("X-Forwarded-For"); len(prior) > 0 {
		xff = strings.Join(prior, ", ") + ", " + ip
	}
	pr.Out.Header.Set("X-Forwarded-For", xff)
	pr.Out.Header.Set("X-Real-IP", ip)
	pr.Out.Header.Set("X-Forwarded-Host", pr.In.Host)
	pr.Out.Header.Set("X-Forwarded-Proto", forwardedProto(pr.In))
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	resp.Header.Del("Server")
	resp.Header.Del("X-Powered-By")
	return nil
}

// handleError maps transport failures to gateway responses.
func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		p.metrics.IncProxyError(metrics.ProxyErrorBodyTooLarge)
		p.logger.Warn("request body exceeded limit during upload",
			slog.String("request_id", requestID),
			slog.Int64("limit", maxErr.Limit),
		)
		w.Header().Set("Connection", "close")
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, middleware.CodePayloadTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit))

	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		p.metrics.IncProxyError(metrics.ProxyErrorCanceled)
		p.logger.Debug("client closed request",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
		)
		w.WriteHeader(StatusClientClosedRequest)

	case isTimeout(err):
		p.metrics.IncProxyError(metrics.ProxyErrorTimeout)
		p.logger.Error("backend timeout",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, http.StatusGatewayTimeout, CodeGatewayTimeout, "Backend did not respond in time")

	default:
		p.metrics.IncProxyError(metrics.ProxyErrorUnavailable)
		p.logger.Error("backend unavailable",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, http.StatusBadGateway, CodeBadGateway, "Backend is unavailable")
	}
}

// Ping reports whether the backend is reachable. Any response below 500
// counts as healthy; the backend root may legitimately 404.
func (p *Proxy) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.backend.String(), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}

	resp, err := p.transport.RoundTrip(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}
	return nil
}

// Backend returns the backend base URL.
func (p *Proxy) Backend() *url.URL {
	return p.backend
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// clientIP returns the peer address without port. RemoteAddr may already
// be a bare IP after chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedProto keeps a scheme set by a TLS edge in front of the gateway.
// Untrusted peers never get here with the header set (TrustedRealIP).
func forwardedProto(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
