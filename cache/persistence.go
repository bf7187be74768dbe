// ABOUTME: This file handles loading and saving the cache snapshot as a versioned JSON document
// ABOUTME: A missing snapshot is a normal cold start; any other failure is a logged warning
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const snapshotVersion = 1

type snapshotStats struct {
	RequestCount int64 `json:"requestCount"`
	SuccessCount int64 `json:"successCount"`
	CacheSize    int   `json:"cacheSize"`
}

type snapshotEntry struct {
	ResolvedURL  string    `json:"resolvedUrl"`
	Timestamp    time.Time `json:"timestamp"`
	RequestCount int       `json:"requestCount"`
}

type snapshot struct {
	Version   int                      `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Stats     snapshotStats            `json:"stats"`
	Entries   map[string]snapshotEntry `json:"entries"`
}

// save copies the cache state under the lock and serializes it outside the
// lock, writing through a temp file so a crash mid-write cannot corrupt the
// previous snapshot.
func (c *ResolutionCache) save() error {
	c.mu.Lock()
	snap := snapshot{
		Version:   snapshotVersion,
		Timestamp: c.now(),
		Stats: snapshotStats{
			RequestCount: c.requestCount,
			SuccessCount: c.successCount,
			CacheSize:    len(c.entries),
		},
		Entries: make(map[string]snapshotEntry, len(c.entries)),
	}
	for key, entry := range c.entries {
		snap.Entries[key] = snapshotEntry{
			ResolvedURL:  entry.ResolvedURL,
			Timestamp:    entry.CreatedAt,
			RequestCount: entry.RequestCount,
		}
	}
	c.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal cache snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.persistPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpPath := c.persistPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, c.persistPath); err != nil {
		return fmt.Errorf("failed to replace cache snapshot: %w", err)
	}

	c.logger.Debug("cache snapshot saved", "path", c.persistPath, "entries", snap.Stats.CacheSize)
	return nil
}

// load restores the previous snapshot. The insertion order is rebuilt from
// entry timestamps so FIFO eviction survives a restart.
func (c *ResolutionCache) load() {
	data, err := os.ReadFile(c.persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		c.logger.Warn("failed to read cache snapshot, starting empty", "path", c.persistPath, "error", err)
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn("failed to parse cache snapshot, starting empty", "path", c.persistPath, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount = snap.Stats.RequestCount
	c.successCount = snap.Stats.SuccessCount

	for key, entry := range snap.Entries {
		c.entries[key] = &Entry{
			ResolvedURL:  entry.ResolvedURL,
			CreatedAt:    entry.Timestamp,
			RequestCount: entry.RequestCount,
		}
		c.order = append(c.order, key)
	}
	sort.Slice(c.order, func(i, j int) bool {
		return c.entries[c.order[i]].CreatedAt.Before(c.entries[c.order[j]].CreatedAt)
	})

	c.logger.Info("cache snapshot loaded", "path", c.persistPath, "entries", len(c.entries))
}
