// ABOUTME: This file implements the resolution cache mapping opaque identifiers to resolved URLs
// ABOUTME: Entries expire lazily after a TTL and the oldest insertion is evicted at capacity
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
)

// Entry is a single cached resolution.
type Entry struct {
	ResolvedURL  string
	CreatedAt    time.Time
	RequestCount int
}

// Stats summarizes the cache contents at a point in time.
type Stats struct {
	Size         int
	ValidCount   int
	ExpiredCount int
}

// ResolutionCache is a TTL cache with FIFO eviction and optional disk
// persistence. Eviction is by insertion order, not last use: the workload is
// write-light and tracking access order buys nothing.
type ResolutionCache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	order   []string

	ttl        time.Duration
	maxEntries int
	logger     *slog.Logger
	now        func() time.Time

	requestCount int64
	successCount int64

	persistPath     string
	persistInterval time.Duration
	persistEnabled  bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewResolutionCache builds a cache from config, attempts to load the previous
// snapshot, and starts the persistence timer when persistence is enabled.
func NewResolutionCache(cfg config.CacheConfig, logger *slog.Logger) *ResolutionCache {
	c := &ResolutionCache{
		entries:         make(map[string]*Entry),
		ttl:             cfg.TTL,
		maxEntries:      cfg.MaxEntries,
		logger:          logger,
		now:             time.Now,
		persistPath:     cfg.PersistPath,
		persistInterval: cfg.PersistInterval,
		persistEnabled:  cfg.PersistEnabled,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}

	// Config validation rejects a non-positive interval, but the cache can
	// also be constructed directly; a zero interval would panic the ticker.
	if c.persistEnabled && c.persistInterval <= 0 {
		logger.Warn("persist interval not positive, using default", "interval", c.persistInterval)
		c.persistInterval = 5 * time.Minute
	}

	if c.persistEnabled {
		c.load()
		go c.persistLoop()
	} else {
		close(c.done)
	}

	return c
}

// Get returns the cached URL for key. Expired entries are deleted as a side
// effect of the lookup and reported as a miss.
func (c *ResolutionCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount++

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}

	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.deleteLocked(key)
		return "", false
	}

	c.successCount++
	return entry.ResolvedURL, true
}

// Set stores a resolution. Updating an existing key keeps its position in the
// eviction order; a new key at capacity evicts the oldest insertion first.
func (c *ResolutionCache) Set(key, resolvedURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.ResolvedURL = resolvedURL
		existing.CreatedAt = c.now()
		existing.RequestCount++
		return
	}

	if len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.deleteLocked(oldest)
		c.logger.Debug("evicted oldest cache entry", "key", oldest)
	}

	c.entries[key] = &Entry{
		ResolvedURL:  resolvedURL,
		CreatedAt:    c.now(),
		RequestCount: 1,
	}
	c.order = append(c.order, key)
}

// Stats counts valid and expired entries without mutating them.
func (c *ResolutionCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Size: len(c.entries)}
	now := c.now()
	for _, entry := range c.entries {
		if now.Sub(entry.CreatedAt) > c.ttl {
			stats.ExpiredCount++
		} else {
			stats.ValidCount++
		}
	}
	return stats
}

// Cleanup stops the persistence timer and performs one final synchronous
// save. Callers must invoke it before process exit so recently resolved
// entries are not lost.
func (c *ResolutionCache) Cleanup() {
	c.stopOnce.Do(func() {
		if c.persistEnabled {
			close(c.stop)
		}
	})
	<-c.done

	if c.persistEnabled {
		if err := c.save(); err != nil {
			c.logger.Warn("final cache save failed", "error", err)
		}
	}
}

// deleteLocked removes key from both the entry map and the insertion order.
// Callers must hold c.mu.
func (c *ResolutionCache) deleteLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *ResolutionCache) persistLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.save(); err != nil {
				c.logger.Warn("periodic cache save failed", "error", err)
			}
		case <-c.stop:
			return
		}
	}
}
