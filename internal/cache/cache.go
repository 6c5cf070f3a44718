// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache is a file-per-key JSON cache with per-entry expiry, used to
// avoid redundant network fetches between runs. Expired entries are treated
// as absent, not actively purged. A run is single-process, so no cross-process
// locking is provided.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entry is the on-disk representation: the stored value plus its timestamp
// and lifetime. An entry is valid iff now - stored_at < ttl.
type entry struct {
	StoredAt   int64           `json:"stored_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
	Value      json.RawMessage `json:"value"`
}

// Cache stores one JSON file per key under a directory.
type Cache struct {
	dir string
	now func() time.Time
}

// New returns a cache rooted at dir. The directory is created lazily on the
// first Put.
func New(dir string) *Cache {
	return &Cache{dir: dir, now: time.Now}
}

// keyPath maps a cache key to a file path, replacing characters that are not
// filesystem-safe.
func (c *Cache) keyPath(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ".", "_", " ", "_").Replace(key)
	return filepath.Join(c.dir, safe+".json")
}

// Get unmarshals the cached value for key into out and returns true on a
// hit. Absent, expired, or unreadable entries are all misses.
func (c *Cache) Get(key string, out any) bool {
	data, err := os.ReadFile(c.keyPath(key))
	if err != nil {
		return false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if c.now().Unix()-e.StoredAt >= e.TTLSeconds {
		return false
	}
	return json.Unmarshal(e.Value, out) == nil
}

// Put stores value under key with the given lifetime. Cache write failures
// are non-fatal and silently ignored; the caller re-fetches next run.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	e := entry{
		StoredAt:   c.now().Unix(),
		TTLSeconds: int64(ttl / time.Second),
		Value:      raw,
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.keyPath(key), data, 0o644)
}

// Stats counts valid and expired entries currently on disk.
func (c *Cache) Stats() (valid, expired int) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	now := c.now().Unix()
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}
		if now-e.StoredAt >= e.TTLSeconds {
			expired++
		} else {
			valid++
		}
	}
	return valid, expired
}

// Clear removes every entry file and returns the number removed.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, de.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
