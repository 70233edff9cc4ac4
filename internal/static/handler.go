package static

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/foodgram/gateway/internal/metrics"
	"github.com/foodgram/gateway/internal/middleware"
)

// Options are shared by the static handlers.
type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNoop()
	}
	return o
}

// fileHandler serves GET and HEAD from one FS.
type fileHandler struct {
	fsys       *FS
	route      string
	prefix     string
	candidates []Candidate
	fallback   string
	index      *Index
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// SPA serves the frontend bundle: $uri, then $uri/index.html, then the
// root index.html. index may be nil, in which case the fallback is read
// from disk each time.
func SPA(fsys *FS, index *Index, opts Options) http.Handler {
	opts = opts.withDefaults()
	return &fileHandler{
		fsys:       fsys,
		route:      metrics.RouteSPA,
		candidates: []Candidate{URI, DirIndex},
		fallback:   IndexName,
		index:      index,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Docs serves API documentation below prefix, answering misses with the
// fallback document from the docs root.
func Docs(fsys *FS, prefix, fallback string, opts Options) http.Handler {
	opts = opts.withDefaults()
	return &fileHandler{
		fsys:       fsys,
		route:      metrics.RouteDocs,
		prefix:     prefix,
		candidates: []Candidate{URI},
		fallback:   "/" + strings.TrimPrefix(fallback, "/"),
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Media serves uploaded files below prefix. Misses are 404.
func Media(fsys *FS, prefix string, opts Options) http.Handler {
	opts = opts.withDefaults()
	return &fileHandler{
		fsys:       fsys,
		route:      metrics.RouteMedia,
		prefix:     prefix,
		candidates: []Candidate{URI},
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		middleware.WriteError(w, http.StatusMethodNotAllowed, middleware.CodeMethodNotAllowed, "Method not allowed")
		return
	}

	reqPath := r.URL.Path
	if h.prefix != "" {
		reqPath = "/" + strings.TrimPrefix(strings.TrimPrefix(reqPath, h.prefix), "/")
	}

	// The SPA fallback comes from the cache when one is loaded.
	fallback := h.fallback
	if h.index != nil {
		fallback = ""
	}

	match, err := TryFiles(h.fsys, reqPath, fallback, h.candidates...)
	if err != nil && errors.Is(err, fs.ErrNotExist) && h.index != nil {
		if h.serveCachedIndex(w, r) {
			return
		}
		match, err = TryFiles(h.fsys, IndexName, "", URI)
		if match != nil {
			match.Fallback = true
		}
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer match.File.Close()

	if match.Fallback {
		h.metrics.IncFallbackServed(h.route)
	}
	if match.Fallback || path.Base(match.Name) == "index.html" {
		w.Header().Set("Cache-Control", "no-cache")
	}

	http.ServeContent(w, r, match.Info.Name(), match.Info.ModTime(), match.File)
}

func (h *fileHandler) serveCachedIndex(w http.ResponseWriter, r *http.Request) bool {
	data, modTime, ok := h.index.Get()
	if !ok {
		return false
	}
	h.metrics.IncFallbackServed(h.route)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", modTime, bytes.NewReader(data))
	return true
}

func (h *fileHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		middleware.WriteError(w, http.StatusNotFound, middleware.CodeNotFound, "Not found")
	case errors.Is(err, fs.ErrPermission):
		middleware.WriteError(w, http.StatusForbidden, middleware.CodeForbidden, "Forbidden")
	default:
		h.logger.Error("failed to open file",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("route", h.route),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Internal server error")
	}
}
