package static

import (
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/foodgram/gateway/internal/metrics"
)

// IndexName is the SPA entry document at the static root.
const IndexName = "/index.html"

// Index caches the SPA index.html in memory.
type Index struct {
	fsys    *FS
	logger  *slog.Logger
	metrics metrics.Recorder

	mu      sync.RWMutex
	data    []byte
	modTime time.Time
	loaded  bool
}

// NewIndex returns an empty cache over fsys. Call Reload to fill it.
func NewIndex(fsys *FS, logger *slog.Logger, recorder metrics.Recorder) *Index {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Index{
		fsys:    fsys,
		logger:  logger.With("component", "spa_index"),
		metrics: recorder,
	}
}

// Reload reads index.html from disk. If the file is gone the cache is
// cleared so fallbacks go to disk until the next successful reload.
func (i *Index) Reload() error {
	data, info, err := i.fsys.ReadFile(IndexName)
	if err != nil {
		i.mu.Lock()
		i.data, i.modTime, i.loaded = nil, time.Time{}, false
		i.mu.Unlock()

		if errors.Is(err, fs.ErrNotExist) {
			i.logger.Warn("index.html missing, serving from disk")
			return nil
		}
		return err
	}

	i.mu.Lock()
	i.data, i.modTime, i.loaded = data, info.ModTime(), true
	i.mu.Unlock()

	i.metrics.IncIndexReload()
	i.logger.Info("index.html loaded",
		slog.Int("bytes", len(data)),
		slog.Time("mod_time", info.ModTime()),
	)
	return nil
}

// Get returns the cached document. ok is false when nothing is cached.
func (i *Index) Get() (data []byte, modTime time.Time, ok bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.data, i.modTime, i.loaded
}
