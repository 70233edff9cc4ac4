package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Requests          map[string]uint64 // keyed by route
	RequestDurationNs int64
	ProxyErrors       map[string]uint64 // keyed by kind
	Fallbacks         map[string]uint64 // keyed by route
	IndexReloads      uint64
	RateLimited       uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                sync.Mutex
	requests          map[string]uint64
	proxyErrors       map[string]uint64
	fallbacks         map[string]uint64
	requestDurationNs int64
	indexReloads      uint64
	rateLimited       uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		requests:    make(map[string]uint64),
		proxyErrors: make(map[string]uint64),
		fallbacks:   make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Requests:          copyCounts(m.requests),
		RequestDurationNs: atomic.LoadInt64(&m.requestDurationNs),
		ProxyErrors:       copyCounts(m.proxyErrors),
		Fallbacks:         copyCounts(m.fallbacks),
		IndexReloads:      atomic.LoadUint64(&m.indexReloads),
		RateLimited:       atomic.LoadUint64(&m.rateLimited),
	}
}

// ObserveRequest counts a completed request per route.
func (m *InMemoryRecorder) ObserveRequest(route, method string, status int, duration time.Duration) {
	m.mu.Lock()
	m.requests[route]++
	m.mu.Unlock()
	atomic.AddInt64(&m.requestDurationNs, duration.Nanoseconds())
}

// IncProxyError increments the proxy error counter for kind.
func (m *InMemoryRecorder) IncProxyError(kind string) {
	m.mu.Lock()
	m.proxyErrors[kind]++
	m.mu.Unlock()
}

// IncFallbackServed increments the fallback counter for route.
func (m *InMemoryRecorder) IncFallbackServed(route string) {
	m.mu.Lock()
	m.fallbacks[route]++
	m.mu.Unlock()
}

// IncIndexReload increments the index reload counter.
func (m *InMemoryRecorder) IncIndexReload() {
	atomic.AddUint64(&m.indexReloads, 1)
}

// IncRateLimited increments the rate limited counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
