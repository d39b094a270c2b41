package clientcfg

import (
	"sync"

	"llmaniac/internal/domain"
)

// DefaultCacheCapacity bounds the config cache when no capacity is configured.
const DefaultCacheCapacity = 128

// Cache is the pluggable cache behind the store. Implementations must treat
// Set as a whole-value replacement so concurrent first-loads of the same id
// converge without coordination.
type Cache interface {
	Get(id string) (*domain.ClientConfig, bool)
	Set(id string, cfg *domain.ClientConfig)
}

// MemoryCache is a capacity-bounded in-memory cache with FIFO eviction.
type MemoryCache struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	entries  map[string]*domain.ClientConfig
}

func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemoryCache{
		capacity: capacity,
		entries:  make(map[string]*domain.ClientConfig),
	}
}

func (c *MemoryCache) Get(id string) (*domain.ClientConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cfg, ok := c.entries[id]
	return cfg, ok
}

func (c *MemoryCache) Set(id string, cfg *domain.ClientConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		c.order = append(c.order, id)
		if len(c.order) > c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
	c.entries[id] = cfg
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
