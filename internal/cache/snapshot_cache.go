package cache

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type Entry struct {
	Value     json.RawMessage
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// SnapshotCache keeps encoded snapshots of finished jobs. Terminal jobs never
// change, so entries are only dropped by age or when the cache is full.
type SnapshotCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewSnapshotCache(config Config) *SnapshotCache {
	if config.TTL <= 0 {
		config.TTL = 15 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 500
	}
	return &SnapshotCache{
		entries:    make(map[string]Entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *SnapshotCache) Get(jobID string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, exists := c.entries[jobID]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, jobID)
		c.mu.Unlock()
		return nil, false
	}
	return append(json.RawMessage(nil), entry.Value...), true
}

func (c *SnapshotCache) Set(jobID string, value json.RawMessage) {
	now := c.now()
	entry := Entry{
		Value:     append(json.RawMessage(nil), value...),
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[jobID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[jobID] = entry
}

func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SnapshotCache) evictOldest() {
	if len(c.entries) == 0 {
		return
	}

	type pair struct {
		key   string
		value Entry
	}
	pairs := make([]pair, 0, len(c.entries))
	for key, value := range c.entries {
		pairs = append(pairs, pair{key: key, value: value})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value.CreatedAt.Before(pairs[j].value.CreatedAt)
	})
	delete(c.entries, pairs[0].key)
}
