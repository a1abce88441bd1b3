package ingest

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"wacc_simulator/pkg/core/wacc"
)

// CachedSource memoises the loaded input tables of another source for a TTL.
// Only raw tables are cached; every run still resolves its own parameters.
type CachedSource struct {
	inner Source
	cache *otter.Cache[string, wacc.Tables]
}

// NewCachedSource wraps inner. A ttl <= 0 disables caching.
func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	c := &CachedSource{inner: inner}
	if ttl > 0 {
		c.cache = otter.Must(&otter.Options[string, wacc.Tables]{
			MaximumSize:      16,
			ExpiryCalculator: otter.ExpiryWriting[string, wacc.Tables](ttl),
		})
	}
	return c
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) Load(ctx context.Context) (wacc.Tables, error) {
	if c.cache == nil {
		return c.inner.Load(ctx)
	}
	key := c.inner.Name()
	if t, ok := c.cache.GetIfPresent(key); ok {
		return t, nil
	}
	t, err := c.inner.Load(ctx)
	if err != nil {
		return wacc.Tables{}, err
	}
	c.cache.Set(key, t)
	return t, nil
}

// Invalidate drops the cached tables so the next Load re-reads the source.
func (c *CachedSource) Invalidate() {
	if c.cache != nil {
		c.cache.Invalidate(c.inner.Name())
	}
}
