package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/RoNRiShaV/dfd/internal/model"
	"github.com/RoNRiShaV/dfd/internal/util"
)

// Cache stores raw backend payloads
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ReportKey derives the cache key for a report payload. The base URL is part
// of the key so switching backends never serves another backend's report.
func ReportKey(baseURL, id string) string {
	hash := sha256.Sum256([]byte(strings.TrimRight(baseURL, "/") + "\x00" + id))
	return "dfd:v1:" + hex.EncodeToString(hash[:])
}

// New builds the configured cache, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, util.ExpandHome(cfg.Dir), cfg.DiskTTL)
}
