package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// MemoryCache is a process-local Cache. Processes do not share it, so a multi-process
// deployment serves stale entries from every process that did not handle the mutation.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*MemoryCache)

// WithClock overrides the time source used for entry ages.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

func NewMemoryCache(ttl time.Duration, opts ...MemoryOption) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.storedAt.Equal(entry.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, storedAt: c.now()}
	return nil
}

func (c *MemoryCache) Generation(_ context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return strconv.FormatUint(c.gen, 10), nil
}

func (c *MemoryCache) SetAt(_ context.Context, gen, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != strconv.FormatUint(c.gen, 10) {
		return nil
	}
	c.entries[key] = memoryEntry{value: value, storedAt: c.now()}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	c.gen++
	return nil
}

func (c *MemoryCache) Len(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}
