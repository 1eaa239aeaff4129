// Package output names and writes rendered pages to disk.
// A single page is written flat as <host>_<path>.<ext>; a crawled site
// mirrors the URL path under the output directory.
package output

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gitlab.com/tozd/go/errors"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer writes rendered output under Dir.
type Writer struct {
	Dir string
}

// New creates a Writer rooted at dir, creating it when missing. An empty dir
// means the current working directory.
func New(dir string) (*Writer, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errors.Errorf("creating output directory: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// WritePage writes one page under a flat name, e.g. yale_edu_about.html.
func (w *Writer) WritePage(rawURL string, data []byte, ext string) (string, error) {
	return w.write(filepath.Join(w.Dir, FlatName(rawURL)+ext), data)
}

// WriteSite writes one page of a crawl, mirroring its URL path:
// https://yale.edu/news/today becomes <dir>/news/today.html.
func (w *Writer) WriteSite(rawURL string, data []byte, ext string) (string, error) {
	rel, err := SitePath(rawURL)
	if err != nil {
		return "", err
	}
	return w.write(filepath.Join(w.Dir, rel+ext), data)
}

func (w *Writer) write(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return "", errors.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", errors.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// FlatName turns a URL into a single file name without extension.
func FlatName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return sanitize(rawURL)
	}
	parts := []string{sanitize(u.Host)}
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if seg != "" {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

// SitePath returns the slash-free relative path for a crawled page. The site
// root and any path ending in "/" map to an index file.
func SitePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Errorf("parsing URL %q: %w", rawURL, err)
	}
	segs := []string{}
	for _, seg := range strings.Split(u.Path, "/") {
		switch seg {
		case "", ".", "..":
			continue
		}
		segs = append(segs, sanitize(seg))
	}
	if len(segs) == 0 || strings.HasSuffix(u.Path, "/") {
		segs = append(segs, "index")
	}
	return filepath.Join(segs...), nil
}

// sanitize keeps letters, digits, and '-'; everything else becomes '_'.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, s)
}
