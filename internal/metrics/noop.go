package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest is a no-op.
func (n *NoopRecorder) ObserveRequest(route, method string, status int, duration time.Duration) {}

// IncProxyError is a no-op.
func (n *NoopRecorder) IncProxyError(kind string) {}

// IncFallbackServed is a no-op.
func (n *NoopRecorder) IncFallbackServed(route string) {}

// IncIndexReload is a no-op.
func (n *NoopRecorder) IncIndexReload() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
