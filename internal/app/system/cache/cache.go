// Package cache is the durable local tier of the profile cache.
//
// It mirrors the last known (display name, dark mode) pair per user so
// profile resolution can answer immediately without waiting on the network,
// and can keep serving names through a remote-store outage. Entries are
// held in memory and
// periodically snapshotted to a JSON file that is reloaded at startup.
//
// The session-scoped tier lives in the cookie session (system/auth), not
// here: it is created at sign-in and destroyed at sign-out.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is one user's cached profile values.
type Entry struct {
	DisplayName string    `json:"display_name"`
	DarkMode    bool      `json:"dark_mode"`
	CachedAt    time.Time `json:"cached_at"`
}

// Cache is a concurrency-safe in-memory map with a file snapshot.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	dirty   bool

	path string
	log  *zap.Logger
}

// Open loads the snapshot at path (if any) and returns a ready cache.
// A missing or unreadable snapshot is not an error: the cache starts empty
// and the first flush recreates the file.
func Open(path string, logger *zap.Logger) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		path:    path,
		log:     logger,
	}

	if path == "" {
		return c
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("profile cache snapshot unreadable, starting empty",
				zap.String("path", path), zap.Error(err))
		}
		return c
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("profile cache snapshot corrupt, starting empty",
			zap.String("path", path), zap.Error(err))
		return c
	}

	c.entries = entries
	logger.Info("profile cache loaded",
		zap.String("path", path), zap.Int("entries", len(entries)))
	return c
}

// Get returns the cached entry for a user, if present.
func (c *Cache) Get(userID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	return e, ok
}

// Put records the latest known values for a user.
func (c *Cache) Put(userID, displayName string, darkMode bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = Entry{
		DisplayName: displayName,
		DarkMode:    darkMode,
		CachedAt:    time.Now().UTC(),
	}
	c.dirty = true
}

// SetDarkMode updates only the dark-mode flag, keeping the cached name.
// A user with no cached name yet still gets an entry so the preference
// survives a restart.
func (c *Cache) SetDarkMode(userID string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[userID]
	e.DarkMode = v
	e.CachedAt = time.Now().UTC()
	c.entries[userID] = e
	c.dirty = true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush writes the snapshot file if anything changed since the last flush.
// Returns true if a write happened. The write goes through a temp file and
// rename so a crash mid-flush never corrupts the previous snapshot.
func (c *Cache) Flush() (bool, error) {
	c.mu.Lock()
	if !c.dirty || c.path == "" {
		c.mu.Unlock()
		return false, nil
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		c.mu.Unlock()
		return false, err
	}
	c.dirty = false
	c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return false, err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return false, err
	}
	return true, nil
}
