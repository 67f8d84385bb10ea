package lightbox

import (
	"context"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/lru"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// cachePrecision rounds cache keys to ~11 m, well inside the query buffer.
const cachePrecision = 4

// CachedService wraps a RiskService with an in-memory LRU cache.
type CachedService struct {
	inner   domain.RiskService
	cache   *lru.Cache[domain.RiskProfile]
	metrics *observability.Metrics
}

// NewCachedService creates a cache decorator around a risk service.
func NewCachedService(inner domain.RiskService, maxEntries int, metrics *observability.Metrics) *CachedService {
	return &CachedService{
		inner:   inner,
		cache:   lru.New[domain.RiskProfile](maxEntries),
		metrics: metrics,
	}
}

// LookupRisk serves from cache when a nearby lookup succeeded before. Only
// successful lookups are cached so transient failures can be retried.
func (c *CachedService) LookupRisk(ctx context.Context, coord domain.Coordinate) (domain.RiskProfile, error) {
	key := coord.Key(cachePrecision)
	if profile, ok := c.cache.Get(key); ok {
		c.metrics.RiskCache.WithLabelValues("hit").Inc()
		return profile, nil
	}
	c.metrics.RiskCache.WithLabelValues("miss").Inc()

	profile, err := c.inner.LookupRisk(ctx, coord)
	if err != nil {
		return profile, err
	}
	c.cache.Put(key, profile)
	return profile, nil
}

// CheckReadiness delegates to the wrapped service when it can report readiness.
func (c *CachedService) CheckReadiness(ctx context.Context) error {
	if rc, ok := c.inner.(interface {
		CheckReadiness(context.Context) error
	}); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}
