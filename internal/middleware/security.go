package middleware

import (
	"fmt"
	"net/http"
)

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsDevelopment disables HSTS in dev environments.
	IsDevelopment bool
}

// scrubbedHeaders never leave the gateway. They identify server software.
var scrubbedHeaders = []string{"Server", "X-Powered-By"}

// headerHookWriter runs a hook on the header map right before the final
// status line is written, after any inner handler or proxied backend has
// populated it.
type headerHookWriter struct {
	http.ResponseWriter
	hook        func(http.Header)
	wroteHeader bool
}

// headerHook edits response headers for one request.
type headerHook func(r *http.Request, h http.Header)

func (hw *headerHookWriter) WriteHeader(code int) {
	if !hw.wroteHeader {
		hw.hook(hw.ResponseWriter.Header())
		// 1xx responses are informational, the final header comes later.
		if code >= 200 {
			hw.wroteHeader = true
		}
	}
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerHookWriter) Write(b []byte) (int, error) {
	if !hw.wroteHeader {
		hw.WriteHeader(http.StatusOK)
	}
	return hw.ResponseWriter.Write(b)
}

func (hw *headerHookWriter) Unwrap() http.ResponseWriter {
	return hw.ResponseWriter
}

func withHeaderHook(hook headerHook) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&headerHookWriter{
				ResponseWriter: w,
				hook:           func(h http.Header) { hook(r, h) },
			}, r)
		})
	}
}

// ServerHeader suppresses server identification headers on every response.
var ServerHeader = withHeaderHook(func(_ *http.Request, h http.Header) {
	for _, name := range scrubbedHeaders {
		h.Del(name)
	}
})

// Security returns a middleware that applies baseline security headers.
// A header already set by the handler or the proxied backend is kept.
//
// Headers applied:
//   - X-Content-Type-Options: nosniff
//   - Referrer-Policy: strict-origin-when-cross-origin
//   - Strict-Transport-Security, outside development and only when the
//     request arrived over HTTPS (directly or via a trusted TLS edge)
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	defaults := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	// max-age=31536000 = 1 year
	const hsts = "max-age=31536000; includeSubDomains"

	return withHeaderHook(func(r *http.Request, h http.Header) {
		for name, value := range defaults {
			if h.Get(name) == "" {
				h.Set(name, value)
			}
		}
		if !cfg.IsDevelopment && isHTTPS(r) && h.Get("Strict-Transport-Security") == "" {
			h.Set("Strict-Transport-Security", hsts)
		}
	})
}

// isHTTPS reports whether the client connection used TLS. X-Forwarded-Proto
// is only present when a trusted proxy set it.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// MaxBodySize returns a middleware that limits request body size.
//
// A declared Content-Length above the limit is rejected up front with 413.
// Bodies of unknown length are wrapped in http.MaxBytesReader; a read past
// the limit fails with *http.MaxBytesError, which downstream handlers map
// to 413.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	message := fmt.Sprintf("Request body exceeds %d bytes", maxBytes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				// Let the server close the connection instead of draining.
				w.Header().Set("Connection", "close")
				WriteError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, message)
				return
			}

			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}

			next.ServeHTTP(w, r)
		})
	}
}
