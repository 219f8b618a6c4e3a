package models

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tristendillon/widgetforge/core/logger"
)

// FileWatcher is the state shared by the watch loop and its debounced
// rebuild callback.
type FileWatcher struct {
	Watcher       *fsnotify.Watcher
	RootDirs      []string
	BuildDir      string
	ExcludePaths  []string
	Debounce      time.Duration
	DebounceTimer *time.Timer
	Pending       map[string]struct{}
	Mutex         sync.Mutex
	Running       atomic.Bool
	OnStart       func() error
	OnChange      func(changed []string) error
	OnClose       func() error
}

func NewFileWatcher(bc BuildContext, debounce time.Duration, excludePaths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fw := &FileWatcher{
		Watcher:      watcher,
		RootDirs:     []string{bc.AppsDir, bc.ModulesDir},
		BuildDir:     bc.BuildDir,
		Debounce:     debounce,
		Pending:      make(map[string]struct{}),
		OnStart:      func() error { return fmt.Errorf("OnStart not set") },
		OnChange:     func([]string) error { return fmt.Errorf("OnChange not set") },
		OnClose:      func() error { return fmt.Errorf("OnClose not set") },
		ExcludePaths: excludePaths,
	}

	fw.loadExcludePaths()
	return fw, nil
}

func (fw *FileWatcher) AddOnStartFunc(onStart func() error) {
	fw.OnStart = onStart
}

func (fw *FileWatcher) AddOnChangeFunc(onChange func(changed []string) error) {
	fw.OnChange = onChange
}

func (fw *FileWatcher) AddOnCloseFunc(onClose func() error) {
	fw.OnClose = onClose
}

// loadExcludePaths adds the default ignore globs. Globs are matched against
// slash paths relative to the root dir that contains the event.
func (fw *FileWatcher) loadExcludePaths() {
	fw.ExcludePaths = append(fw.ExcludePaths, ".git", "**/.git", "**/.git/**", "**/node_modules/**", "**/*.swp", "**/*~", "**/.DS_Store")

	logger.Debug("Excluding paths: %v", fw.ExcludePaths)
}
