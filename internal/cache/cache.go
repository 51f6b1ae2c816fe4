// Package cache stores ranked quote lists under a route fingerprint for a short TTL.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

// QuoteCache is the storage used by discovery. A failed or expired lookup is a miss.
type QuoteCache interface {
	Get(ctx context.Context, key string) ([]model.BridgeQuote, bool)
	Set(ctx context.Context, key string, quotes []model.BridgeQuote)
}

const (
	DefaultTTL      = 30 * time.Second
	DefaultCapacity = 1000
)

type entry struct {
	quotes   []model.BridgeQuote
	storedAt time.Time
}

// Memory is a mutex-guarded TTL cache with a capacity bound. Eviction is
// approximate: on overflow the oldest tenth of entries is dropped, which is not LRU.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]entry
	ttl      time.Duration
	capacity int
	now      func() time.Time
	onEvict  func(n int)
}

// MemoryOption configures a Memory cache
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithEvictionHook is called with the number of entries dropped on overflow
func WithEvictionHook(fn func(n int)) MemoryOption {
	return func(m *Memory) { m.onEvict = fn }
}

// NewMemory creates an in-process cache. Non-positive values select the defaults.
func NewMemory(ttl time.Duration, capacity int, opts ...MemoryOption) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m := &Memory{
		entries:  make(map[string]entry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached list if present and younger than the TTL
func (m *Memory) Get(_ context.Context, key string) ([]model.BridgeQuote, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) >= m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	return model.CloneQuotes(e.quotes), true
}

// Set stores a copy of quotes, evicting the oldest entries when over capacity
func (m *Memory) Set(_ context.Context, key string, quotes []model.BridgeQuote) {
	stored := model.CloneQuotes(quotes)

	m.mu.Lock()
	m.entries[key] = entry{quotes: stored, storedAt: m.now()}
	evicted := 0
	if len(m.entries) > m.capacity {
		evicted = m.evictOldestLocked()
	}
	m.mu.Unlock()

	if evicted > 0 && m.onEvict != nil {
		m.onEvict(evicted)
	}
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictOldestLocked drops max(1, len/10) of the oldest entries
func (m *Memory) evictOldestLocked() int {
	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(m.entries))
	for k, e := range m.entries {
		all = append(all, aged{key: k, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	n := len(all) / 10
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(m.entries, a.key)
	}
	return n
}
