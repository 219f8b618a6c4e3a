package models

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"time"
)

// CacheEntry holds the text of a file together with the stat and hash used to
// decide whether the cached copy is still current.
type CacheEntry struct {
	FilePath  string    `json:"file_path"`
	ModTime   time.Time `json:"mod_time"`
	FileHash  string    `json:"file_hash"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCacheEntry(filePath string) (*CacheEntry, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return &CacheEntry{
		FilePath:  filePath,
		ModTime:   stat.ModTime(),
		FileHash:  fmt.Sprintf("%x", md5.Sum(content)),
		Content:   string(content),
		CreatedAt: time.Now(),
	}, nil
}

// Check reports whether the file still holds the cached content, along with
// its current mtime. A changed mtime with an unchanged hash is still valid.
// Check never modifies ce.
func (ce *CacheEntry) Check() (time.Time, bool, error) {
	stat, err := os.Stat(ce.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("failed to stat file %s: %w", ce.FilePath, err)
	}

	if stat.ModTime().Equal(ce.ModTime) {
		return ce.ModTime, true, nil
	}

	currentHash, err := calculateFileHash(ce.FilePath)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to calculate current hash for file %s: %w", ce.FilePath, err)
	}
	return stat.ModTime(), currentHash == ce.FileHash, nil
}

// WithModTime returns a copy of ce carrying modTime.
func (ce *CacheEntry) WithModTime(modTime time.Time) *CacheEntry {
	next := *ce
	next.ModTime = modTime
	return &next
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
