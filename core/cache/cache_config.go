package cache

import (
	"time"
)

type CacheConfig struct {
	MaxEntries int           `json:"max_entries"`
	DefaultTTL time.Duration `json:"default_ttl"`
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxEntries: 512,
		DefaultTTL: 15 * time.Minute,
	}
}
