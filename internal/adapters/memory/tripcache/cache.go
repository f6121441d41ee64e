package tripcache

import (
	"context"
	"sync"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

// Cache is an in-memory implementation of tripcache.Cache.
// It is safe for concurrent use. Entries never expire.
type Cache struct {
	mu   sync.RWMutex
	byID map[domain.TripID]domain.Trip
}

func NewCache() *Cache {
	return &Cache{byID: make(map[domain.TripID]domain.Trip)}
}

func (c *Cache) Get(ctx context.Context, id domain.TripID) (domain.Trip, bool, error) {
	_ = ctx
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok, nil
}

func (c *Cache) Set(ctx context.Context, t domain.Trip) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[t.ID] = t
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, id domain.TripID) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	return nil
}
