package static

import (
	"errors"
	"io/fs"
	"os"
	"path"
)

// Candidate maps a request path to a file name to try.
type Candidate func(reqPath string) string

// URI tries the request path itself ($uri).
func URI(reqPath string) string {
	return reqPath
}

// DirIndex tries index.html inside the request path ($uri/index.html).
func DirIndex(reqPath string) string {
	return path.Join(reqPath, "index.html")
}

// Match is a file picked by TryFiles. The caller closes File.
type Match struct {
	File     *os.File
	Info     fs.FileInfo
	Name     string
	Fallback bool
}

// TryFiles returns the first candidate that names a regular file. When no
// candidate exists and fallback is non-empty, fallback is opened instead.
// A miss on everything reports fs.ErrNotExist.
func TryFiles(fsys *FS, reqPath string, fallback string, candidates ...Candidate) (*Match, error) {
	for _, candidate := range candidates {
		name := candidate(reqPath)
		file, info, err := fsys.OpenFile(name)
		if err == nil {
			return &Match{File: file, Info: info, Name: name}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if fallback == "" {
		return nil, notExist(reqPath)
	}

	file, info, err := fsys.OpenFile(fallback)
	if err != nil {
		return nil, err
	}
	return &Match{File: file, Info: info, Name: fallback, Fallback: true}, nil
}
