// Package watcher turns filesystem events under the apps and modules dirs into
// debounced per-workspace rebuild requests.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

// AllWorkspaces is the pending key recorded for module changes.
const AllWorkspaces = "*"

type FileWatcherImpl struct {
	FileWatcher *models.FileWatcher
	bc          models.BuildContext
	invalidate  func(path string)
}

func NewFileWatcher(bc models.BuildContext, debounce time.Duration, excludePaths []string) (*FileWatcherImpl, error) {
	fw, err := models.NewFileWatcher(bc, debounce, excludePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcherImpl{
		FileWatcher: fw,
		bc:          bc,
		invalidate:  func(string) {},
	}, nil
}

// SetInvalidator registers a hook called with every changed module file.
func (fw *FileWatcherImpl) SetInvalidator(fn func(path string)) {
	if fn != nil {
		fw.invalidate = fn
	}
}

// Watch blocks until ctx is cancelled. OnChange receives the sorted IDs of
// the workspaces touched since the last call, or nil when every workspace
// must be rebuilt.
func (fw *FileWatcherImpl) Watch(ctx context.Context) error {
	defer fw.Close()

	for _, root := range fw.FileWatcher.RootDirs {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			logger.Debug("Not watching missing dir %s", root)
			continue
		}
		if err := fw.addWatchersRecursively(root); err != nil {
			return fmt.Errorf("failed to add watchers: %w", err)
		}
	}

	if err := fw.FileWatcher.OnStart(); err != nil {
		logger.Error("Watcher.OnStart failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.FileWatcher.Watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if fw.shouldExcludePath(event.Name) {
				continue
			}

			logger.Debug("File event: %s %s", event.Op, event.Name)

			if event.Has(fsnotify.Create) {
				if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
					logger.Debug("Adding watcher for new directory: %s", event.Name)
					if err := fw.addWatchersRecursively(event.Name); err != nil {
						logger.Warn("Failed to watch %s: %v", event.Name, err)
					}
				}
			}

			id, ok := fw.WorkspaceFor(event.Name)
			if !ok {
				continue
			}
			if id == AllWorkspaces && (event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				fw.invalidate(event.Name)
			}
			fw.schedule(ctx, id)

		case err, ok := <-fw.FileWatcher.Watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

// WorkspaceFor maps a changed path to the workspace it belongs to.
func (fw *FileWatcherImpl) WorkspaceFor(path string) (string, bool) {
	if rel, ok := within(fw.bc.ModulesDir, path); ok && rel != "." {
		return AllWorkspaces, true
	}

	rel, ok := within(fw.bc.AppsDir, path)
	if !ok || rel == "." {
		return "", false
	}
	segments := strings.Split(rel, "/")
	if len(segments) == 1 {
		// Only a directory directly under apps is a workspace.
		if stat, err := os.Stat(path); err != nil || !stat.IsDir() {
			return "", false
		}
	}
	return segments[0], true
}

func (fw *FileWatcherImpl) schedule(ctx context.Context, id string) {
	fw.FileWatcher.Mutex.Lock()
	defer fw.FileWatcher.Mutex.Unlock()

	fw.FileWatcher.Pending[id] = struct{}{}
	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}
	fw.FileWatcher.DebounceTimer = time.AfterFunc(fw.FileWatcher.Debounce, func() {
		fw.fire(ctx)
	})
}

// fire drains the pending set. A rebuild still in progress defers the drain
// to the next debounce tick rather than overlapping it.
func (fw *FileWatcherImpl) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !fw.FileWatcher.Running.CompareAndSwap(false, true) {
		logger.Debug("Rebuild still running, rescheduling")
		fw.FileWatcher.Mutex.Lock()
		if fw.FileWatcher.DebounceTimer != nil {
			fw.FileWatcher.DebounceTimer.Reset(fw.FileWatcher.Debounce)
		}
		fw.FileWatcher.Mutex.Unlock()
		return
	}
	defer fw.FileWatcher.Running.Store(false)

	fw.FileWatcher.Mutex.Lock()
	if len(fw.FileWatcher.Pending) == 0 {
		fw.FileWatcher.Mutex.Unlock()
		return
	}
	_, all := fw.FileWatcher.Pending[AllWorkspaces]
	var changed []string
	if !all {
		for id := range fw.FileWatcher.Pending {
			changed = append(changed, id)
		}
		sort.Strings(changed)
	}
	clear(fw.FileWatcher.Pending)
	fw.FileWatcher.Mutex.Unlock()

	logger.Debug("File changes detected, rebuilding %v", changed)
	if err := fw.FileWatcher.OnChange(changed); err != nil {
		logger.Error("Watcher.OnChange failed: %v", err)
	}
}

func (fw *FileWatcherImpl) Close() error {
	fw.FileWatcher.Mutex.Lock()
	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}
	fw.FileWatcher.Mutex.Unlock()

	if err := fw.FileWatcher.OnClose(); err != nil {
		logger.Error("Watcher.OnClose failed: %v", err)
	}

	return fw.FileWatcher.Watcher.Close()
}

func (fw *FileWatcherImpl) shouldExcludePath(path string) bool {
	if _, ok := within(fw.FileWatcher.BuildDir, path); ok {
		return true
	}

	for _, root := range fw.FileWatcher.RootDirs {
		rel, ok := within(root, path)
		if !ok {
			continue
		}
		for _, pattern := range fw.FileWatcher.ExcludePaths {
			if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
				return true
			}
		}
		return false
	}

	return true
}

func (fw *FileWatcherImpl) addWatchersRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if fw.shouldExcludePath(path) {
			logger.Debug("Excluding directory: %s", path)
			return filepath.SkipDir
		}

		logger.Debug("Adding watcher for: %s", path)
		if err := fw.FileWatcher.Watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}

		return nil
	})
}

// within returns the slash path of path relative to root when path is root
// or lies below it.
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
