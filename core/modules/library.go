// Package modules resolves import directive names to shared snippet files.
package modules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tristendillon/widgetforge/core/cache"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/shared"
)

var ErrModuleNotFound = errors.New("module not found")

// Library is the flat module namespace under one directory. A module's name
// is its slash path relative to the directory with the last extension
// removed, so modules/ui/button.jsx is "ui/button".
type Library struct {
	dir   string
	index map[string]string
	files *cache.FileCache
}

// NewLibrary indexes dir. A missing dir yields an empty library.
func NewLibrary(dir string, files *cache.FileCache) (*Library, error) {
	if files == nil {
		files = cache.NewFileCache(nil)
	}
	lib := &Library{dir: dir, index: make(map[string]string), files: files}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			logger.Debug("Module dir %s does not exist, library is empty", dir)
			return lib, nil
		}
		return nil, fmt.Errorf("failed to stat module dir %s: %w", dir, err)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "**", doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to list modules in %s: %w", dir, err)
	}
	sort.Strings(matches)

	for _, rel := range matches {
		segments := shared.SplitPath(rel)
		if len(segments) == 0 {
			continue
		}
		segments[len(segments)-1] = shared.TrimExt(segments[len(segments)-1])
		name := shared.JoinSegments(segments, "/")
		if existing, dup := lib.index[name]; dup {
			logger.Warn("Module %s is provided by both %s and %s; using the first", name, existing, rel)
			continue
		}
		lib.index[name] = filepath.Join(dir, filepath.FromSlash(rel))
	}

	logger.Debug("Indexed %d modules in %s", len(lib.index), dir)
	return lib, nil
}

// Lookup returns the text of module name.
func (l *Library) Lookup(name string) (string, error) {
	path, ok := l.index[name]
	if !ok {
		return "", fmt.Errorf("%w: %q in %s", ErrModuleNotFound, name, l.dir)
	}
	content, err := l.files.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read module %q: %w", name, err)
	}
	return content, nil
}

// Names lists the indexed module names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.index))
	for name := range l.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
