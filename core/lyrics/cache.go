package lyrics

import (
	"context"
	"sync"
)

// Cache stores fetched lyric text per track ID. An empty string is a valid cached
// "not found" result.
type Cache interface {
	Get(ctx context.Context, trackID string) (string, bool, error)
	Set(ctx context.Context, trackID, text string) error
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, trackID string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.items[trackID]
	return text, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, trackID, text string) error {
	c.mu.Lock()
	c.items[trackID] = text
	c.mu.Unlock()
	return nil
}
