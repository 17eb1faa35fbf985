// Package viewcache memoizes heatmap payloads by selection key for the life of
// the process.
package viewcache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/drought-dashboard/internal/domain"
	"github.com/couchcryptid/drought-dashboard/internal/observability"
)

// BuildFunc computes the heatmap for one selection key.
type BuildFunc func(ctx context.Context) (*domain.Heatmap, error)

// Cache maps selection keys to built heatmaps. Each key moves Absent ->
// Building -> Ready and never back; a failed build leaves the key Absent so a
// later request can retry. There is no eviction: the key space is bounded by
// release dates times intensity levels.
type Cache struct {
	mu      sync.RWMutex
	entries map[domain.SelectionKey]*domain.Heatmap
	group   singleflight.Group
	metrics *observability.Metrics
}

// New creates an empty cache. metrics may be nil.
func New(metrics *observability.Metrics) *Cache {
	return &Cache{
		entries: make(map[domain.SelectionKey]*domain.Heatmap),
		metrics: metrics,
	}
}

// GetOrBuild returns the cached heatmap for key, calling build at most once per
// key across all callers. Concurrent callers for a key that is Building wait for
// and share that build. The build runs detached from ctx cancellation so a
// superseded request still populates the cache.
func (c *Cache) GetOrBuild(ctx context.Context, key domain.SelectionKey, build BuildFunc) (*domain.Heatmap, error) {
	if h, ok := c.get(key); ok {
		c.observe("hit")
		return h, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		// A build for key may have completed between get and Do.
		if h, ok := c.get(key); ok {
			return h, nil
		}
		h, err := build(buildCtx)
		if err != nil {
			return nil, err
		}
		c.put(key, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.observe("shared")
	} else {
		c.observe("miss")
	}
	return v.(*domain.Heatmap), nil
}

// Len returns the number of Ready entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) get(key domain.SelectionKey) (*domain.Heatmap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[key]
	return h, ok
}

func (c *Cache) put(key domain.SelectionKey, h *domain.Heatmap) {
	c.mu.Lock()
	c.entries[key] = h
	n := len(c.entries)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.HeatmapCacheEntries.Set(float64(n))
	}
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.HeatmapCache.WithLabelValues(result).Inc()
	}
}
