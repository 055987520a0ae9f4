package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the read-through cache lifetime for API responses.
const DefaultTTL = 5 * time.Minute

// Store is the contract mutating services use to name the keys they
// invalidate. Every write path must invalidate its keys before the next read.
type Store interface {
	Get(key string) (any, bool)
	Put(key string, value any, ttl time.Duration)
	Invalidate(keys ...string)
}

type item struct {
	value   any
	expires time.Time
}

// TTLCache is an in-process read-through cache with per-key expiry and
// singleflight deduplication of concurrent identical loads.
type TTLCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]item
	group singleflight.Group
}

// NewTTL constructs a TTLCache with the given default lifetime.
func NewTTL(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

// Get returns the cached value when present and not expired.
func (c *TTLCache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return it.value, true
}

// Put stores a value under key. A non-positive ttl uses the cache default.
func (c *TTLCache) Put(key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = item{value: value, expires: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops the named keys.
func (c *TTLCache) Invalidate(keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
}

// Through returns the cached value for key, or loads it once even under
// concurrent identical requests and caches the result.
func (c *TTLCache) Through(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	resultChan := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, v, 0)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

var _ Store = (*TTLCache)(nil)
