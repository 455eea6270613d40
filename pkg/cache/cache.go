// Package cache provides thread-safe TTL caching with an optional disk tier.
package cache

import (
	"sync"
	"time"
)

// Recommended TTLs for the data the tools fetch.
const (
	// TTLGroupMembers is for directory group membership (changes rarely).
	TTLGroupMembers = 12 * time.Hour

	// TTLPullRequests is for active PR lists (changes constantly; short).
	TTLPullRequests = 2 * time.Minute

	// TTLProfile is for the current user's identity profile.
	TTLProfile = 24 * time.Hour

	// TTLWorkItems is for work-item query results.
	TTLWorkItems = 10 * time.Minute
)

// sweepInterval is how often expired memory entries are collected.
const sweepInterval = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Memory is a thread-safe in-memory cache with per-entry TTL.
type Memory struct {
	entries    map[string]entry
	mu         sync.RWMutex
	defaultTTL time.Duration
}

// NewMemory creates a memory cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	m := &Memory{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
	}
	go m.sweep()
	return m
}

// Get retrieves a value if present and not expired.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read lock was dropped.
		if e2, ok := m.entries[key]; ok && time.Now().After(e2.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores a value with the default TTL.
func (m *Memory) Set(key string, value any) {
	m.SetWithTTL(key, value, m.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL.
func (m *Memory) SetWithTTL(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		m.mu.Lock()
		for key, e := range m.entries {
			if now.After(e.expiresAt) {
				delete(m.entries, key)
			}
		}
		m.mu.Unlock()
	}
}
