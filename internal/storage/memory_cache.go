package storage

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache implements Cache with an in-process map. It offers the same
// semantics as the Redis backend (TTL expiry, whole-value replacement,
// prefix invalidation) for single-instance deployments and tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns the value for key if present and unexpired.
func (m *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		// Expired entries are removed lazily.
		m.mu.Lock()
		if current, still := m.entries[key]; still && current.expiresAt.Equal(entry.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores a value, replacing any prior entry wholesale.
func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes keys; missing keys are a no-op.
func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

// DeleteByPrefix removes every key sharing a prefix.
func (m *MemoryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-process backend.
func (m *MemoryCache) Ping(ctx context.Context) error { return nil }

// Close drops all entries.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live entries. Test helper.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
