// ABOUTME: This file tests cache expiry, FIFO eviction, and snapshot persistence
// ABOUTME: Uses an injectable clock so TTL boundaries are exact
package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testCache(t *testing.T, maxEntries int, ttl time.Duration) *ResolutionCache {
	t.Helper()
	c := NewResolutionCache(config.CacheConfig{
		TTL:            ttl,
		MaxEntries:     maxEntries,
		PersistEnabled: false,
	}, testLogger())
	t.Cleanup(c.Cleanup)
	return c
}

func TestResolutionCache_GetSet(t *testing.T) {
	t.Run("should return stored value on hit", func(t *testing.T) {
		c := testCache(t, 10, time.Hour)
		c.Set("CBMiabc", "https://example.com/story")

		got, ok := c.Get("CBMiabc")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/story", got)
	})

	t.Run("should miss on unknown key", func(t *testing.T) {
		c := testCache(t, 10, time.Hour)

		_, ok := c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("should overwrite value for existing key", func(t *testing.T) {
		c := testCache(t, 10, time.Hour)
		c.Set("CBMiabc", "https://example.com/old")
		c.Set("CBMiabc", "https://example.com/new")

		got, ok := c.Get("CBMiabc")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/new", got)
		assert.Equal(t, 1, c.Stats().Size)
	})
}

func TestResolutionCache_TTL(t *testing.T) {
	t.Run("should expire entries strictly older than the TTL", func(t *testing.T) {
		c := testCache(t, 10, time.Hour)
		current := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return current }

		c.Set("CBMiabc", "https://example.com/story")

		// Exactly at the TTL boundary the entry is still valid.
		current = current.Add(time.Hour)
		_, ok := c.Get("CBMiabc")
		assert.True(t, ok)

		current = current.Add(time.Millisecond)
		_, ok = c.Get("CBMiabc")
		assert.False(t, ok)

		// Expired lookup deletes the entry as a side effect.
		assert.Equal(t, 0, c.Stats().Size)
	})
}

func TestResolutionCache_FIFOEviction(t *testing.T) {
	t.Run("should evict the oldest insertion regardless of reads", func(t *testing.T) {
		c := testCache(t, 3, time.Hour)
		c.Set("a", "https://example.com/a")
		c.Set("b", "https://example.com/b")
		c.Set("c", "https://example.com/c")

		// Reading the oldest entry must not save it from eviction.
		_, ok := c.Get("a")
		require.True(t, ok)

		c.Set("d", "https://example.com/d")

		_, ok = c.Get("a")
		assert.False(t, ok)
		for _, key := range []string{"b", "c", "d"} {
			_, ok := c.Get(key)
			assert.True(t, ok, "expected %q to survive eviction", key)
		}
	})

	t.Run("should keep insertion position on idempotent set", func(t *testing.T) {
		c := testCache(t, 2, time.Hour)
		c.Set("a", "https://example.com/a")
		c.Set("b", "https://example.com/b")
		c.Set("a", "https://example.com/a2")

		// "a" is still the oldest insertion, so it goes first.
		c.Set("c", "https://example.com/c")

		_, ok := c.Get("a")
		assert.False(t, ok)
		_, ok = c.Get("b")
		assert.True(t, ok)
	})
}

func TestResolutionCache_Stats(t *testing.T) {
	t.Run("should count valid and expired entries separately", func(t *testing.T) {
		c := testCache(t, 10, time.Hour)
		current := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return current }

		c.Set("old", "https://example.com/old")
		current = current.Add(2 * time.Hour)
		c.Set("fresh", "https://example.com/fresh")

		stats := c.Stats()
		assert.Equal(t, 2, stats.Size)
		assert.Equal(t, 1, stats.ValidCount)
		assert.Equal(t, 1, stats.ExpiredCount)
	})
}

func TestResolutionCache_Persistence(t *testing.T) {
	t.Run("should round-trip entries through a snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		cfg := config.CacheConfig{
			TTL:             time.Hour,
			MaxEntries:      10,
			PersistPath:     path,
			PersistInterval: time.Hour,
			PersistEnabled:  true,
		}

		first := NewResolutionCache(cfg, testLogger())
		first.Set("CBMiabc", "https://example.com/story")
		first.Cleanup()

		second := NewResolutionCache(cfg, testLogger())
		defer second.Cleanup()

		got, ok := second.Get("CBMiabc")
		require.True(t, ok)
		assert.Equal(t, "https://example.com/story", got)
	})

	t.Run("should write the versioned snapshot document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		c := NewResolutionCache(config.CacheConfig{
			TTL:             time.Hour,
			MaxEntries:      10,
			PersistPath:     path,
			PersistInterval: time.Hour,
			PersistEnabled:  true,
		}, testLogger())
		c.Set("CBMiabc", "https://example.com/story")
		c.Cleanup()

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var doc map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Contains(t, doc, "version")
		assert.Contains(t, doc, "timestamp")
		assert.Contains(t, doc, "stats")
		assert.Contains(t, doc, "entries")

		var entries map[string]map[string]any
		require.NoError(t, json.Unmarshal(doc["entries"], &entries))
		require.Contains(t, entries, "CBMiabc")
		assert.Equal(t, "https://example.com/story", entries["CBMiabc"]["resolvedUrl"])
	})

	t.Run("should start empty when the snapshot is missing", func(t *testing.T) {
		c := NewResolutionCache(config.CacheConfig{
			TTL:             time.Hour,
			MaxEntries:      10,
			PersistPath:     filepath.Join(t.TempDir(), "never-written.json"),
			PersistInterval: time.Hour,
			PersistEnabled:  true,
		}, testLogger())
		defer c.Cleanup()

		assert.Equal(t, 0, c.Stats().Size)
	})

	t.Run("should tolerate a corrupt snapshot", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		c := NewResolutionCache(config.CacheConfig{
			TTL:             time.Hour,
			MaxEntries:      10,
			PersistPath:     path,
			PersistInterval: time.Hour,
			PersistEnabled:  true,
		}, testLogger())
		defer c.Cleanup()

		assert.Equal(t, 0, c.Stats().Size)
		c.Set("CBMiabc", "https://example.com/story")
		_, ok := c.Get("CBMiabc")
		assert.True(t, ok)
	})

	t.Run("should survive direct construction with a zero persist interval", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")

		c := NewResolutionCache(config.CacheConfig{
			TTL:            time.Hour,
			MaxEntries:     10,
			PersistPath:    path,
			PersistEnabled: true,
		}, testLogger())
		defer c.Cleanup()

		assert.Equal(t, 5*time.Minute, c.persistInterval)
		c.Set("CBMiabc", "https://example.com/story")
		_, ok := c.Get("CBMiabc")
		assert.True(t, ok)
	})
}
