// Package cache stores fetched match data in a two-tier cache: a bounded
// in-memory LRU in front of durable per-key JSON files. Entries expire
// after a TTL checked lazily on read; disk writes are atomic via
// temp-file-then-rename so a reader never observes a torn entry.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"vlr-matches/internal/logging"
	"vlr-matches/internal/match"
)

// Defaults for cache construction.
const (
	DefaultTTL        = time.Hour
	DefaultMemorySize = 100
)

// entry is the on-disk envelope for one cached match.
type entry struct {
	URL       string      `json:"url"`
	Timestamp float64     `json:"timestamp"`
	Data      match.Match `json:"data"`
}

// Stats describes cache occupancy across both tiers.
type Stats struct {
	MemoryEntries int
	DiskTotal     int
	DiskValid     int
	DiskExpired   int
}

// Cache is the two-tier match cache. When disabled, every operation is a
// no-op miss so callers never need to special-case the disabled state.
// Safe for concurrent use; disk files for different keys never contend.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	memory  *expirable.LRU[string, match.Match]
}

// New creates a cache rooted at dir. Non-positive ttl or memorySize select
// the defaults. The directory is created eagerly when the cache is
// enabled.
func New(dir string, ttl time.Duration, enabled bool, memorySize int) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if memorySize <= 0 {
		memorySize = DefaultMemorySize
	}
	if enabled {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	return &Cache{
		dir:     dir,
		ttl:     ttl,
		enabled: enabled,
		memory:  expirable.NewLRU[string, match.Match](memorySize, nil, ttl),
	}, nil
}

// Enabled reports whether the cache is active.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// key derives the cache key for a URL: a SHA-256 hex digest.
func key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum)
}

func (c *Cache) path(k string) string {
	return filepath.Join(c.dir, k+".json")
}

// Get returns the cached match for a URL. Memory is checked first; a disk
// hit promotes the value into the memory tier. Absent, corrupt, and
// expired entries are all misses, and the latter two delete the file on
// the way out.
func (c *Cache) Get(url string) (*match.Match, bool) {
	if !c.enabled {
		return nil, false
	}
	log := logging.WithComponent("cache")
	k := key(url)

	if m, ok := c.memory.Get(k); ok {
		log.Debug().Str("url", url).Msg("memory cache hit")
		return &m, true
	}

	data, err := os.ReadFile(c.path(k))
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		log.Warn().Str("url", url).Err(err).Msg("corrupt cache entry, removing")
		os.Remove(c.path(k))
		return nil, false
	}
	if c.expired(e.Timestamp, time.Now()) {
		log.Debug().Str("url", url).Msg("cache entry expired")
		os.Remove(c.path(k))
		return nil, false
	}

	c.memory.Add(k, e.Data)
	log.Debug().Str("url", url).Msg("disk cache hit")
	m := e.Data
	return &m, true
}

// Set stores a match in both tiers. Disk write failures are logged and
// swallowed: a failed cache write must never fail the fetch that produced
// the data.
func (c *Cache) Set(url string, m *match.Match) {
	if !c.enabled || m == nil {
		return
	}
	log := logging.WithComponent("cache")
	k := key(url)

	c.memory.Add(k, *m)

	e := entry{
		URL:       url,
		Timestamp: epochSeconds(time.Now()),
		Data:      *m,
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		log.Warn().Str("url", url).Err(err).Msg("failed to encode cache entry")
		return
	}
	if err := writeAtomic(c.dir, c.path(k), data); err != nil {
		log.Warn().Str("url", url).Err(err).Msg("failed to write cache entry")
		return
	}
	log.Debug().Str("url", url).Msg("cached match data")
}

// Invalidate removes a URL from both tiers. Returns true when an on-disk
// entry was actually removed; a second call returns false.
func (c *Cache) Invalidate(url string) bool {
	if !c.enabled {
		return false
	}
	k := key(url)
	c.memory.Remove(k)

	if err := os.Remove(c.path(k)); err != nil {
		return false
	}
	log := logging.WithComponent("cache")
	log.Debug().Str("url", url).Msg("invalidated cache entry")
	return true
}

// Clear empties the memory tier and removes every disk entry, returning
// the total number of entries removed across both tiers.
func (c *Cache) Clear() int {
	memoryCount := c.memory.Len()
	c.memory.Purge()

	diskCount := 0
	for _, p := range c.diskEntries() {
		if os.Remove(p) == nil {
			diskCount++
		}
	}

	log := logging.WithComponent("cache")
	log.Info().
		Int("disk", diskCount).
		Int("memory", memoryCount).
		Msg("cleared cache")
	return diskCount + memoryCount
}

// ClearExpired sweeps the disk tier, removing entries past their TTL.
// Entries that fail to parse are treated as expired. Returns the number
// removed.
func (c *Cache) ClearExpired() int {
	count := 0
	now := time.Now()
	for _, p := range c.diskEntries() {
		e, err := readEntry(p)
		if err != nil || c.expired(e.Timestamp, now) {
			if os.Remove(p) == nil {
				count++
			}
		}
	}
	if count > 0 {
		log := logging.WithComponent("cache")
		log.Info().Int("count", count).Msg("cleared expired cache entries")
	}
	return count
}

// GetStats reports occupancy for both tiers.
func (c *Cache) GetStats() Stats {
	stats := Stats{MemoryEntries: c.memory.Len()}
	now := time.Now()
	for _, p := range c.diskEntries() {
		stats.DiskTotal++
		e, err := readEntry(p)
		if err != nil || c.expired(e.Timestamp, now) {
			stats.DiskExpired++
		} else {
			stats.DiskValid++
		}
	}
	return stats
}

// diskEntries lists the cache files currently on disk.
func (c *Cache) diskEntries() []string {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil
	}
	return matches
}

func (c *Cache) expired(timestamp float64, now time.Time) bool {
	return epochSeconds(now)-timestamp > c.ttl.Seconds()
}

func readEntry(path string) (entry, error) {
	var e entry
	data, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, err
	}
	if e.URL == "" && e.Timestamp == 0 {
		return e, fmt.Errorf("invalid cache entry %s", filepath.Base(path))
	}
	return e, nil
}

// writeAtomic writes data to a temp file in dir and renames it over dst.
func writeAtomic(dir, dst string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
