// Package cache keeps the last parsed articles of every feed in memory.
package cache

import (
	"sync"
	"time"

	"headlines/internal/model"
)

// Store is a keyed article store. Get returns an entry regardless of its
// age, so callers can fall back to stale data; freshness is decided by
// Fresh.
type Store interface {
	Get(key string) (model.CacheEntry, bool)
	Set(key string, articles []model.Article)
	Fresh(entry model.CacheEntry) bool
}

// Memory is a process-local Store. Entries are overwritten in place and
// never evicted; the key space is bounded by the feed registry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]model.CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates a Memory store whose entries stay fresh for ttl.
func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, time.Now)
}

// NewMemoryWithClock creates a Memory store reading time from now (useful
// for testing).
func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	return &Memory{
		entries: make(map[string]model.CacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the entry stored under key, fresh or stale.
func (m *Memory) Get(key string) (model.CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

// Set replaces the entry under key and stamps it with the current time.
func (m *Memory) Set(key string, articles []model.Article) {
	stored := make([]model.Article, len(articles))
	copy(stored, articles)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = model.CacheEntry{Articles: stored, FetchedAt: m.now()}
}

// Fresh reports whether entry is younger than the store's TTL.
func (m *Memory) Fresh(entry model.CacheEntry) bool {
	return m.now().Sub(entry.FetchedAt) < m.ttl
}

// TTL returns the freshness window.
func (m *Memory) TTL() time.Duration {
	return m.ttl
}
