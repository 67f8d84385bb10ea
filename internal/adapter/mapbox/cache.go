package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/storm-data-risk/internal/domain"
	"github.com/couchcryptid/storm-data-risk/internal/lru"
	"github.com/couchcryptid/storm-data-risk/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[domain.Place]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   lru.New[domain.Place](maxEntries),
		metrics: metrics,
	}
}

// ForwardGeocode serves repeated searches from cache. Queries differing only
// in case or surrounding space share an entry. Misses and failures are not
// cached so they can be retried.
func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) (domain.Place, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if place, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return place, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	place, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil {
		return place, err
	}
	c.cache.Put(key, place)
	return place, nil
}
