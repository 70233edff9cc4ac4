package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReadyTimeout bounds the whole readiness probe.
const DefaultReadyTimeout = 5 * time.Second

// Check status values reported by Readyz.
const (
	StatusOK            = "ok"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not configured"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f CheckFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Check is one named dependency probed by Readyz. A nil Checker reports
// "not configured" and does not fail readiness.
type Check struct {
	Name    string
	Checker HealthChecker
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	checks  []Check
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler over the given checks.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: DefaultReadyTimeout,
	}
}

// WithTimeout overrides the readiness timeout.
func (h *HealthHandler) WithTimeout(d time.Duration) *HealthHandler {
	if d > 0 {
		h.timeout = d
	}
	return h
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the process is serving. No dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: StatusOK})
}

// Readyz is a readiness probe endpoint.
// It runs all checks concurrently and returns 200 only if every configured
// dependency answers.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		checks  = make(map[string]string, len(h.checks))
		healthy = true
	)

	// Unconfigured entries are filled before any check runs; the map is
	// shared with the goroutines below.
	for _, c := range h.checks {
		if c.Checker == nil {
			checks[c.Name] = StatusNotConfigured
		}
	}

	var g errgroup.Group
	for _, c := range h.checks {
		if c.Checker == nil {
			continue
		}
		g.Go(func() error {
			result := StatusOK
			if err := c.Checker.Ping(ctx); err != nil {
				result = "error: " + err.Error()
			}

			mu.Lock()
			checks[c.Name] = result
			if result != StatusOK {
				healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	statusCode := http.StatusOK
	if !healthy {
		status = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, HealthResponse{
		Status: status,
		Checks: checks,
	})
}
