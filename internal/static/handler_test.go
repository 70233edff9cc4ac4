package static

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foodgram/gateway/internal/metrics"
	"github.com/foodgram/gateway/internal/testutil"
)

type siteHandlers struct {
	site     *testutil.Site
	spa      http.Handler
	docs     http.Handler
	media    http.Handler
	index    *Index
	recorder *metrics.InMemoryRecorder
}

func newSiteHandlers(t *testing.T, cached bool) *siteHandlers {
	t.Helper()

	site := testutil.NewSite(t)
	recorder := metrics.NewInMemory()
	opts := Options{Logger: testutil.DiscardLogger(), Metrics: recorder}

	mustFS := func(root string) *FS {
		fsys, err := NewFS(root)
		if err != nil {
			t.Fatalf("NewFS(%s): %v", root, err)
		}
		return fsys
	}

	staticFS := mustFS(site.StaticRoot)
	var index *Index
	if cached {
		index = NewIndex(staticFS, testutil.DiscardLogger(), recorder)
		if err := index.Reload(); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}

	return &siteHandlers{
		site:     site,
		spa:      SPA(staticFS, index, opts),
		docs:     Docs(mustFS(site.DocsRoot), "/api/docs", "redoc.html", opts),
		media:    Media(mustFS(site.MediaRoot), "/media", opts),
		index:    index,
		recorder: recorder,
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSPA(t *testing.T) {
	t.Parallel()

	for _, cached := range []bool{false, true} {
		name := "disk"
		if cached {
			name = "cached"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newSiteHandlers(t, cached)

			tests := []struct {
				target       string
				wantBody     string
				wantType     string
				wantNoCache  bool
				wantFallback bool
			}{
				{"/", "<html>foodgram spa</html>", "text/html; charset=utf-8", true, false},
				{"/static/js/main.js", "console.log('foodgram')", "", false, false},
				{"/about", "<html>about</html>", "text/html; charset=utf-8", true, false},
				{"/about/", "<html>about</html>", "text/html; charset=utf-8", true, false},
				{"/recipes/12", "<html>foodgram spa</html>", "text/html; charset=utf-8", true, true},
				{"/signin?next=/cart", "<html>foodgram spa</html>", "text/html; charset=utf-8", true, true},
				{"/static/../../../etc/passwd", "<html>foodgram spa</html>", "text/html; charset=utf-8", true, true},
			}

			for _, tt := range tests {
				before := h.recorder.Snapshot().Fallbacks[metrics.RouteSPA]
				rec := serve(h.spa, http.MethodGet, tt.target)

				if rec.Code != http.StatusOK {
					t.Errorf("%s: status = %d, want 200", tt.target, rec.Code)
					continue
				}
				if rec.Body.String() != tt.wantBody {
					t.Errorf("%s: body = %q, want %q", tt.target, rec.Body.String(), tt.wantBody)
				}
				if got := rec.Header().Get("Content-Type"); tt.wantType != "" && got != tt.wantType {
					t.Errorf("%s: Content-Type = %q, want %q", tt.target, got, tt.wantType)
				}
				if got := rec.Header().Get("Cache-Control") == "no-cache"; got != tt.wantNoCache {
					t.Errorf("%s: no-cache = %v, want %v", tt.target, got, tt.wantNoCache)
				}
				after := h.recorder.Snapshot().Fallbacks[metrics.RouteSPA]
				if (after > before) != tt.wantFallback {
					t.Errorf("%s: fallback counted = %v, want %v", tt.target, after > before, tt.wantFallback)
				}
			}
		})
	}
}

func TestSPA_MissingIndex(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)
	if err := os.Remove(filepath.Join(h.site.StaticRoot, "index.html")); err != nil {
		t.Fatal(err)
	}

	if rec := serve(h.spa, http.MethodGet, "/recipes/1"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSPA_CacheClearedFallsBackToDisk(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, true)
	indexPath := filepath.Join(h.site.StaticRoot, "index.html")

	if err := os.Remove(indexPath); err != nil {
		t.Fatal(err)
	}
	if err := h.index.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if _, _, ok := h.index.Get(); ok {
		t.Fatal("expected cache to be empty after index.html removal")
	}

	if err := os.WriteFile(indexPath, []byte("<html>v2</html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := serve(h.spa, http.MethodGet, "/recipes/1")
	if rec.Body.String() != "<html>v2</html>" {
		t.Errorf("body = %q, want disk copy", rec.Body.String())
	}
}

func TestSPA_Head(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, true)
	rec := serve(h.spa, http.MethodHead, "/recipes/1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD body length = %d, want 0", rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Length"); got != "25" {
		t.Errorf("Content-Length = %q, want 25", got)
	}
}

func TestSPA_ConditionalGet(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/static/css/main.css", nil)
	req.Header.Set("If-Modified-Since", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	rec := httptest.NewRecorder()
	h.spa.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rec.Code)
	}
}

func TestStatic_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)

	for _, handler := range []http.Handler{h.spa, h.docs, h.media} {
		rec := serve(handler, http.MethodPost, "/media/recipes/images/borscht.png")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
		if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
			t.Errorf("Allow = %q", got)
		}
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)

	tests := []struct {
		target       string
		wantBody     string
		wantFallback bool
	}{
		{"/api/docs/openapi-schema.yml", "openapi: 3.0.2\n", false},
		{"/api/docs/redoc.html", "<html>redoc</html>", false},
		{"/api/docs/", "<html>redoc</html>", true},
		{"/api/docs/missing.json", "<html>redoc</html>", true},
		{"/api/docs/../../index.html", "<html>redoc</html>", true},
	}

	for _, tt := range tests {
		before := h.recorder.Snapshot().Fallbacks[metrics.RouteDocs]
		rec := serve(h.docs, http.MethodGet, tt.target)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", tt.target, rec.Code)
			continue
		}
		if rec.Body.String() != tt.wantBody {
			t.Errorf("%s: body = %q, want %q", tt.target, rec.Body.String(), tt.wantBody)
		}
		after := h.recorder.Snapshot().Fallbacks[metrics.RouteDocs]
		if (after > before) != tt.wantFallback {
			t.Errorf("%s: fallback counted = %v, want %v", tt.target, after > before, tt.wantFallback)
		}
	}
}

func TestDocs_MissingFallback(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)
	if err := os.Remove(filepath.Join(h.site.DocsRoot, "redoc.html")); err != nil {
		t.Fatal(err)
	}

	if rec := serve(h.docs, http.MethodGet, "/api/docs/missing"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMedia(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)

	rec := serve(h.media, http.MethodGet, "/media/recipes/images/borscht.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "PNGDATA" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}

	for _, target := range []string{
		"/media/recipes/images/missing.png",
		"/media/recipes/images/",
		"/media/",
		"/media/../html/index.html",
	} {
		rec := serve(h.media, http.MethodGet, target)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "borscht") {
			t.Errorf("%s: directory listing leaked", target)
		}
	}

	if n := h.recorder.Snapshot().Fallbacks[metrics.RouteMedia]; n != 0 {
		t.Errorf("media fallbacks = %d, want 0", n)
	}
}

func TestMedia_Range(t *testing.T) {
	t.Parallel()

	h := newSiteHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/media/recipes/images/borscht.png", nil)
	req.Header.Set("Range", "bytes=0-2")
	rec := httptest.NewRecorder()
	h.media.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "PNG" {
		t.Errorf("body = %q, want PNG", rec.Body.String())
	}
}
