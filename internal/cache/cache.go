package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const responsesDir = "responses"

// Entry represents a cached analysis response.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Cache is a file-based cache of analysis responses.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(filepath.Join(dir, responsesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
	}, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	path := c.entryPath(key)
	entry, err := readEntry(path)
	if err != nil {
		return "", false
	}
	if c.expired(entry) {
		os.Remove(path)
		os.Remove(path + lockSuffix)
		return "", false
	}
	return entry.Response, true
}

// Put stores a response in the cache.
func (c *Cache) Put(key, response string) error {
	if !c.enabled {
		return nil
	}
	entry := Entry{
		Key:       HashKey(key),
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return lockAndWrite(c.entryPath(key), data)
}

// Clear removes all response entries and their lock files. It returns the
// number of entries removed.
func (c *Cache) Clear() (int, error) {
	return c.sweep(func(string) bool { return true })
}

// Prune removes expired and unreadable entries and returns how many were
// removed. Entries that are still valid are kept.
func (c *Cache) Prune() (int, error) {
	return c.sweep(func(path string) bool {
		entry, err := readEntry(path)
		return err != nil || c.expired(entry)
	})
}

// sweep deletes every entry for which drop reports true, together with its
// lock file.
func (c *Cache) sweep(drop func(path string) bool) (int, error) {
	if !c.enabled || c.dir == "" {
		return 0, nil
	}
	dir := filepath.Join(c.dir, responsesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		name := e.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		path := filepath.Join(dir, name)
		if !drop(path) {
			continue
		}
		if err := os.Remove(path); err == nil {
			removed++
		}
		os.Remove(path + lockSuffix)
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Enabled    bool   `json:"enabled"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
	HasLast    bool   `json:"hasLast"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir, Enabled: c.enabled}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	if _, err := os.Stat(filepath.Join(c.dir, lastFile)); err == nil {
		stats.HasLast = true
	}
	dir := filepath.Join(c.dir, responsesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := readEntry(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// readEntry loads an entry under a shared lock. A missing entry is reported
// without creating a lock file.
func readEntry(path string) (Entry, error) {
	var entry Entry
	if _, err := os.Stat(path); err != nil {
		return entry, err
	}
	err := withReadLock(path, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &entry)
	})
	return entry, err
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the analysis inputs.
func BuildCacheKey(command string, args []string, prompt string) string {
	return HashKey(fmt.Sprintf("%s\x00%s\x00%s", command, strings.Join(args, "\x1f"), prompt))
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, responsesDir, HashKey(key)+".json")
}

// DefaultDir returns the OS-appropriate cache directory for diffsense.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "diffsense"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "diffsense"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "diffsense", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "diffsense", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "diffsense"), nil
	}
}
