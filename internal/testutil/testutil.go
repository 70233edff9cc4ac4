// Package testutil holds fixtures shared by gateway tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// File Tree Fixtures
// ============================================================================

// WriteTree creates files under root. Keys are slash-separated relative
// paths; parent directories are created as needed.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// Site is a throwaway deployment layout: frontend bundle, API docs and
// media directories in a temp dir.
type Site struct {
	StaticRoot string
	DocsRoot   string
	MediaRoot  string
}

// NewSite builds a Site with a minimal frontend build, docs and one image.
func NewSite(t testing.TB) *Site {
	t.Helper()
	base := t.TempDir()

	site := &Site{
		StaticRoot: filepath.Join(base, "html"),
		DocsRoot:   filepath.Join(base, "html", "api", "docs"),
		MediaRoot:  filepath.Join(base, "media"),
	}

	WriteTree(t, site.StaticRoot, map[string]string{
		"index.html":                  "<html>foodgram spa</html>",
		"static/js/main.js":           "console.log('foodgram')",
		"static/css/main.css":         "body{}",
		"about/index.html":            "<html>about</html>",
		"api/docs/redoc.html":         "<html>redoc</html>",
		"api/docs/openapi-schema.yml": "openapi: 3.0.2\n",
	})
	WriteTree(t, site.MediaRoot, map[string]string{
		"recipes/images/borscht.png": "PNGDATA",
	})

	return site
}

// ============================================================================
// Backend Fixture
// ============================================================================

// SeenRequest is what a fake backend observed about one request.
type SeenRequest struct {
	Method string
	Path   string
	Query  string
	Host   string
	Header http.Header
	Body   []byte
}

// Backend is a fake Django backend that records requests.
type Backend struct {
	*httptest.Server

	mu   sync.Mutex
	seen []SeenRequest
}

// NewBackend starts a recording backend. If handler is nil the backend
// answers 200 with a small JSON body and a Server header.
func NewBackend(t testing.TB, handler http.HandlerFunc) *Backend {
	t.Helper()

	b := &Backend{}
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Server", "gunicorn")
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"ok":true}`)
		}
	}

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.seen = append(b.seen, SeenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Host:   r.Host,
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(b.Close)

	return b
}

// Requests returns a copy of the requests seen so far.
func (b *Backend) Requests() []SeenRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]SeenRequest, len(b.seen))
	copy(out, b.seen)
	return out
}

// Last returns the most recent request, failing the test if none.
func (b *Backend) Last(t testing.TB) SeenRequest {
	t.Helper()
	reqs := b.Requests()
	if len(reqs) == 0 {
		t.Fatal("backend received no requests")
	}
	return reqs[len(reqs)-1]
}
