package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/models"
)

// FileCache keeps file text keyed by absolute path. An entry is served only
// while the file's mtime or content hash still matches. Stored entries are
// never mutated; a refreshed mtime replaces the entry under the write lock.
type FileCache struct {
	mu      sync.RWMutex
	entries map[string]*models.CacheEntry
	config  *CacheConfig
}

func NewFileCache(config *CacheConfig) *FileCache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	return &FileCache{
		entries: make(map[string]*models.CacheEntry),
		config:  config,
	}
}

// Read returns the current content of filePath, from cache when possible.
func (fc *FileCache) Read(filePath string) (string, error) {
	if content, ok := fc.ValidateAndGet(filePath); ok {
		return content, nil
	}

	entry, err := models.NewCacheEntry(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", filePath, err)
	}
	fc.store(filePath, entry)
	return entry.Content, nil
}

func (fc *FileCache) ValidateAndGet(filePath string) (string, bool) {
	fc.mu.RLock()
	entry, exists := fc.entries[filePath]
	fc.mu.RUnlock()

	if !exists {
		return "", false
	}
	if time.Since(entry.CreatedAt) > fc.config.DefaultTTL {
		logger.Debug("Cache entry for %s expired", filePath)
		fc.InvalidateFile(filePath)
		return "", false
	}

	modTime, valid, err := entry.Check()
	if err != nil || !valid {
		if err != nil {
			logger.Debug("Cache validation error for %s: %v", filePath, err)
		}
		fc.InvalidateFile(filePath)
		return "", false
	}

	if !modTime.Equal(entry.ModTime) {
		fc.store(filePath, entry.WithModTime(modTime))
	}
	return entry.Content, true
}

func (fc *FileCache) store(filePath string, entry *models.CacheEntry) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if _, exists := fc.entries[filePath]; !exists && len(fc.entries) >= fc.config.MaxEntries {
		fc.evictOldest()
	}
	fc.entries[filePath] = entry
}

func (fc *FileCache) InvalidateFile(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	delete(fc.entries, filePath)
}

func (fc *FileCache) Len() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.entries)
}

// evictOldest must be called with mu held.
func (fc *FileCache) evictOldest() {
	var oldestPath string
	var oldestTime time.Time
	for path, entry := range fc.entries {
		if oldestPath == "" || entry.CreatedAt.Before(oldestTime) {
			oldestPath = path
			oldestTime = entry.CreatedAt
		}
	}
	if oldestPath != "" {
		delete(fc.entries, oldestPath)
		logger.Debug("Evicted oldest cache entry: %s", oldestPath)
	}
}
