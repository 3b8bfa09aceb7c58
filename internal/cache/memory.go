package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// MemoryConfig holds configuration for the in-process store.
type MemoryConfig struct {
	// Logger for store operations.
	Logger zerolog.Logger

	// CleanupInterval is how often expired entries are swept out
	// (default: 5 minutes). Sweeping happens opportunistically on
	// writes, not on a background goroutine.
	CleanupInterval time.Duration
}

// Memory is a concurrency-safe in-process Store with per-entry TTLs and
// a tag index for bulk invalidation.
type Memory struct {
	logger          zerolog.Logger
	cleanupInterval time.Duration

	group singleflight.Group

	mu          sync.Mutex
	entries     map[string]memoryEntry
	tagged      map[string]map[string]struct{}
	lastCleanup time.Time

	metrics *storeMetrics
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// NewMemory creates a new in-process store.
func NewMemory(cfg MemoryConfig) *Memory {
	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = 5 * time.Minute
	}

	return &Memory{
		logger:          cfg.Logger,
		cleanupInterval: cleanup,
		entries:         make(map[string]memoryEntry),
		tagged:          make(map[string]map[string]struct{}),
		metrics:         newStoreMetrics("memory"),
	}
}

// GetOrCompute implements Store. Concurrent misses for the same key are
// coalesced into a single compute call.
func (m *Memory) GetOrCompute(ctx context.Context, key string, ttl time.Duration, tags []string, compute ComputeFunc) ([]byte, error) {
	if value, ok := m.lookup(key); ok {
		m.metrics.recordHit(ctx)
		return value, nil
	}

	m.metrics.recordMiss(ctx)

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while this one
		// waited on the flight group.
		if value, ok := m.lookup(key); ok {
			return value, nil
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		m.set(key, value, ttl, tags)
		return value, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// InvalidateTag implements Store.
func (m *Memory) InvalidateTag(_ context.Context, tag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, ok := m.tagged[tag]
	if !ok {
		return nil
	}

	for key := range keys {
		delete(m.entries, key)
	}
	delete(m.tagged, tag)

	m.logger.Debug().
		Str("tag", tag).
		Int("evicted", len(keys)).
		Msg("cache tag invalidated")

	return nil
}

func (m *Memory) lookup(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) set(key string, value []byte, ttl time.Duration, tags []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
		tags:      tags,
	}

	for _, tag := range tags {
		keys, ok := m.tagged[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tagged[tag] = keys
		}
		keys[key] = struct{}{}
	}

	m.cleanupLocked()
}

// cleanupLocked removes expired entries and their tag index references.
// Callers must hold mu.
func (m *Memory) cleanupLocked() {
	now := time.Now()
	if now.Sub(m.lastCleanup) < m.cleanupInterval {
		return
	}
	m.lastCleanup = now

	expired := 0
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			for _, tag := range entry.tags {
				if keys, ok := m.tagged[tag]; ok {
					delete(keys, key)
					if len(keys) == 0 {
						delete(m.tagged, tag)
					}
				}
			}
			expired++
		}
	}

	if expired > 0 {
		m.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired cache entries")
	}
}
