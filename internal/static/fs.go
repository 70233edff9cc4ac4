// Package static serves the frontend bundle, API docs and uploaded media
// from disk with nginx try_files semantics.
package static

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

// FS is a directory on disk that refuses to resolve names outside its root.
type FS struct {
	root string
}

// NewFS returns an FS rooted at root. The root must exist and be a directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", root)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.root
}

// Resolve maps a slash-separated URL path to a path on disk. It returns
// false when the name cannot be mapped inside the root.
func (f *FS) Resolve(name string) (string, bool) {
	if strings.ContainsRune(name, 0) {
		return "", false
	}
	// Rooting before Clean collapses any ".." at the top.
	clean := path.Clean("/" + name)

	full := filepath.Join(f.root, filepath.FromSlash(clean))
	if full != f.root && !strings.HasPrefix(full, f.root+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// OpenFile opens name if it is a regular file under the root. Directories
// and anything outside the root report fs.ErrNotExist.
func (f *FS) OpenFile(name string) (*os.File, fs.FileInfo, error) {
	full, ok := f.Resolve(name)
	if !ok {
		return nil, nil, notExist(name)
	}

	file, err := os.Open(full)
	if err != nil {
		if isMissing(err) {
			return nil, nil, notExist(name)
		}
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		file.Close()
		return nil, nil, notExist(name)
	}

	return file, info, nil
}

// ReadFile returns the contents of a regular file under the root.
func (f *FS) ReadFile(name string) ([]byte, fs.FileInfo, error) {
	file, info, err := f.OpenFile(name)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, info, nil
}

func notExist(name string) error {
	return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// isMissing treats "a/file.txt/b" and over-long names like plain misses.
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.ENOTDIR) ||
		errors.Is(err, syscall.ENAMETOOLONG)
}
