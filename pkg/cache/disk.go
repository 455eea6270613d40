package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// diskRetention is how long stale cache files are kept before cleanup.
	diskRetention = 14 * 24 * time.Hour

	dirPerms  = 0o700
	filePerms = 0o600
)

type diskEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
	CachedAt  time.Time       `json:"cached_at"`
}

// Disk layers JSON file persistence under a memory cache, so responses
// survive between tool invocations. If dir is empty the cache degrades to
// memory-only.
type Disk struct {
	*Memory

	dir     string
	enabled bool
}

// NewDisk creates a two-tier cache rooted at dir.
func NewDisk(defaultTTL time.Duration, dir string) (*Disk, error) {
	d := &Disk{
		Memory:  NewMemory(defaultTTL),
		dir:     dir,
		enabled: dir != "",
	}

	if d.enabled {
		clean := filepath.Clean(dir)
		if !filepath.IsAbs(clean) {
			return nil, errors.New("cache directory must be an absolute path")
		}
		if err := os.MkdirAll(clean, dirPerms); err != nil {
			slog.Warn("Failed to create cache directory, using memory only", "path", clean, "error", err)
			d.enabled = false
		} else {
			d.dir = clean
			go d.removeStaleFiles()
		}
	}

	return d, nil
}

// Get checks the memory tier first, then disk. A disk hit is promoted back
// into memory with its remaining TTL.
func (d *Disk) Get(key string) (any, bool) {
	if value, ok := d.Memory.Get(key); ok {
		return value, true
	}
	if !d.enabled {
		return nil, false
	}

	var e diskEntry
	data, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(data, &e); err != nil {
		slog.Warn("Corrupt cache file, removing", "key", key, "error", err)
		d.remove(key)
		return nil, false
	}
	if time.Now().After(e.ExpiresAt) {
		d.remove(key)
		return nil, false
	}

	var value any
	if err := json.Unmarshal(e.Value, &value); err != nil {
		d.remove(key)
		return nil, false
	}
	if ttl := time.Until(e.ExpiresAt); ttl > 0 {
		d.Memory.SetWithTTL(key, value, ttl)
	}
	return value, true
}

// Set stores a value in both tiers with the default TTL.
func (d *Disk) Set(key string, value any) {
	d.SetWithTTL(key, value, d.defaultTTL)
}

// SetWithTTL stores a value in both tiers.
func (d *Disk) SetWithTTL(key string, value any, ttl time.Duration) {
	d.Memory.SetWithTTL(key, value, ttl)
	if !d.enabled {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		slog.Debug("Value not serializable for disk cache", "key", key, "error", err)
		return
	}
	e := diskEntry{
		Value:     raw,
		ExpiresAt: time.Now().Add(ttl),
		CachedAt:  time.Now(),
	}
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := os.WriteFile(d.path(key), data, filePerms); err != nil {
		slog.Debug("Failed to write cache file", "key", key, "error", err)
	}
}

// path hashes the key so arbitrary URLs make safe filenames.
func (d *Disk) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:])+".json")
}

func (d *Disk) remove(key string) {
	if err := os.Remove(d.path(key)); err != nil && !os.IsNotExist(err) {
		slog.Debug("Failed to remove cache file", "key", key, "error", err)
	}
}

// removeStaleFiles deletes cache files older than the retention period.
func (d *Disk) removeStaleFiles() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-diskRetention)
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(d.dir, de.Name())); err != nil {
				slog.Debug("Failed to remove stale cache file", "file", de.Name(), "error", err)
			}
		}
	}
}
