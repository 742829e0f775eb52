package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// memoryCache keeps values in an expirable LRU. mu guards the tag index only
// and is never held while calling into the LRU, whose eviction callback
// takes mu itself.
type memoryCache struct {
	entries *expirable.LRU[string, []byte]

	mu      sync.Mutex
	tags    map[string]map[string]struct{}
	keyTags map[string]map[string]struct{}
}

// NewMemoryCache creates a process local cache of at most size entries,
// each living for ttl.
func NewMemoryCache(size int, ttl time.Duration) Cache {
	c := &memoryCache{
		tags:    map[string]map[string]struct{}{},
		keyTags: map[string]map[string]struct{}{},
	}
	c.entries = expirable.NewLRU[string, []byte](size, c.onEvict, ttl)
	return c
}

// onEvict drops an expired, evicted or removed key from the tag index.
func (c *memoryCache) onEvict(key string, _ []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for tag := range c.keyTags[key] {
		keys := c.tags[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.tags, tag)
		}
	}
	delete(c.keyTags, key)
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, tags ...string) error {
	c.entries.Add(key, value)
	if len(tags) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = map[string]struct{}{}
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}

		own, ok := c.keyTags[key]
		if !ok {
			own = map[string]struct{}{}
			c.keyTags[key] = own
		}
		own[tag] = struct{}{}
	}
	return nil
}

func (c *memoryCache) InvalidateTag(_ context.Context, tag string) error {
	c.mu.Lock()
	keys := make([]string, 0, len(c.tags[tag]))
	for key := range c.tags[tag] {
		keys = append(keys, key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.entries.Remove(key)
	}
	return nil
}

func (c *memoryCache) tagIndexSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tags), len(c.keyTags)
}
