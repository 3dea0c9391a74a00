package registry

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

const listKey = "sites"

// CachedRegistry holds List results for a fixed TTL. Writes go straight to
// the backend and drop the cached list.
type CachedRegistry struct {
	next  Registry
	cache *ristretto.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedRegistry wraps next; a ttl of zero disables caching
func NewCachedRegistry(next Registry, ttl time.Duration, log *zap.Logger) (*CachedRegistry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedRegistry{next: next, cache: cache, ttl: ttl, log: log}, nil
}

func (c *CachedRegistry) List(ctx context.Context) ([]Site, error) {
	if c.ttl > 0 {
		if v, ok := c.cache.Get(listKey); ok {
			c.log.Debug("site list served from cache")
			return append([]Site(nil), v.([]Site)...), nil
		}
	}

	sites, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if c.ttl > 0 {
		c.cache.SetWithTTL(listKey, append([]Site(nil), sites...), int64(len(sites))+1, c.ttl)
		c.cache.Wait()
	}
	return sites, nil
}

func (c *CachedRegistry) Append(ctx context.Context, site Site) error {
	defer c.Invalidate()
	return c.next.Append(ctx, site)
}

func (c *CachedRegistry) Delete(ctx context.Context, name string) error {
	defer c.Invalidate()
	return c.next.Delete(ctx, name)
}

// Invalidate drops the cached site list
func (c *CachedRegistry) Invalidate() {
	c.cache.Del(listKey)
}

// Close releases the cache
func (c *CachedRegistry) Close() {
	c.cache.Close()
}
