package cache

import (
	"context"
	"sync"
	"time"

	"excelytics/ports"
)

// MemoryCache implements ports.Cache in process memory. When full, the
// entry closest to expiry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]entry
	maxSize int
	now     func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

var _ ports.Cache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryCache{
		data:    make(map[string]entry),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves a value from cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.data, key)
		return nil, ports.ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value; a non-positive ttl never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxSize {
		c.evictLocked()
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

// Delete removes a value from cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Close is a no-op.
func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) evictLocked() {
	now := c.now()
	var (
		victim string
		soon   time.Time
		found  bool
	)
	for k, e := range c.data {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(c.data, k)
			return
		}
		if e.expiresAt.IsZero() {
			if !found {
				victim, found = k, true
			}
			continue
		}
		if !found || soon.IsZero() || e.expiresAt.Before(soon) {
			victim, soon, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.data, victim)
	}
}
