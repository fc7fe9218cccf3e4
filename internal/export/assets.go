package export

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Resolver maps logical asset paths onto the filesystem. A leading slash
// means web-root-relative, anything else is relative to the content root.
type Resolver struct {
	ContentRoot string
	WebRoot     string
}

func NewResolver(contentRoot, webRoot string) *Resolver {
	return &Resolver{ContentRoot: contentRoot, WebRoot: webRoot}
}

// Resolve returns the raw bytes of a logical path. Missing or unreadable
// assets yield (nil, false); optional assets such as signatures are allowed
// to be absent, so this never returns an error.
func (r *Resolver) Resolve(logical string) ([]byte, bool) {
	path, ok := r.AbsolutePath(logical)
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("export.assets.read_failed", "path", path, "error", err)
		}
		return nil, false
	}
	return b, true
}

// AbsolutePath maps a logical path to a filesystem path and reports whether
// the file exists.
func (r *Resolver) AbsolutePath(logical string) (string, bool) {
	if logical == "" {
		return "", false
	}
	var path string
	if strings.HasPrefix(logical, "/") {
		path = filepath.Join(r.WebRoot, filepath.FromSlash(strings.TrimPrefix(logical, "/")))
	} else {
		path = filepath.Join(r.ContentRoot, filepath.FromSlash(logical))
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
