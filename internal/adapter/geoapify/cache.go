package geoapify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/cache"
	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
)

// Cache tags. Every entry carries TagGeocoding plus one of the narrower tags.
const (
	TagGeocoding = "geocoding"
	TagCities    = "cities"
	TagStreets   = "streets"
)

var (
	cityTags   = []string{TagGeocoding, TagCities}
	streetTags = []string{TagGeocoding, TagStreets}
)

// CachedGeocoder wraps a Geocoder with a tagged TTL cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   cache.Store
	ttl     time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder. When inner
// supports it, the city lookup behind street and address searches is routed
// back through the cache.
func NewCachedGeocoder(inner domain.Geocoder, store cache.Store, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	c := &CachedGeocoder{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
	if u, ok := inner.(cityResolverUser); ok {
		u.UseCityResolver(c)
	}
	return c
}

func (c *CachedGeocoder) CityCoordinates(ctx context.Context, city string) (*domain.Coordinates, error) {
	key := cacheKey(OpCityCoordinates, domain.NormalizeCity(city))
	return cached(ctx, c, OpCityCoordinates, key, cityTags, func() (*domain.Coordinates, bool, error) {
		coords, err := c.inner.CityCoordinates(ctx, city)
		return coords, coords != nil, err
	})
}

func (c *CachedGeocoder) SearchCities(ctx context.Context, keyword string) ([]string, error) {
	key := cacheKey(OpSearchCities, domain.NormalizeHebrew(keyword))
	return cached(ctx, c, OpSearchCities, key, cityTags, func() ([]string, bool, error) {
		cities, err := c.inner.SearchCities(ctx, keyword)
		return cities, len(cities) > 0, err
	})
}

func (c *CachedGeocoder) SearchStreets(ctx context.Context, keyword, city string) ([]string, error) {
	key := cacheKey(OpSearchStreets, domain.NormalizeHebrew(keyword), domain.NormalizeCity(city))
	return cached(ctx, c, OpSearchStreets, key, streetTags, func() ([]string, bool, error) {
		streets, err := c.inner.SearchStreets(ctx, keyword, city)
		return streets, len(streets) > 0, err
	})
}

func (c *CachedGeocoder) AddressCoordinates(ctx context.Context, address, city, streetNumber string) (*domain.Coordinates, error) {
	key := cacheKey(OpAddressCoordinates,
		domain.NormalizeHebrew(address), domain.NormalizeCity(city), strings.TrimSpace(streetNumber))
	return cached(ctx, c, OpAddressCoordinates, key, streetTags, func() (*domain.Coordinates, bool, error) {
		coords, err := c.inner.AddressCoordinates(ctx, address, city, streetNumber)
		return coords, coords != nil, err
	})
}

// RevalidateGeocoding drops every cached geocoding result.
func (c *CachedGeocoder) RevalidateGeocoding(ctx context.Context) (int, error) {
	return c.revalidate(ctx, TagGeocoding)
}

// RevalidateCities drops cached city coordinates and city searches.
func (c *CachedGeocoder) RevalidateCities(ctx context.Context) (int, error) {
	return c.revalidate(ctx, TagCities)
}

// RevalidateStreets drops cached street searches and address coordinates.
func (c *CachedGeocoder) RevalidateStreets(ctx context.Context) (int, error) {
	return c.revalidate(ctx, TagStreets)
}

func (c *CachedGeocoder) revalidate(ctx context.Context, tag string) (int, error) {
	n, err := c.store.InvalidateTag(ctx, tag)
	if err != nil {
		return 0, err
	}
	c.metrics.CacheInvalidations.WithLabelValues(tag).Add(float64(n))
	c.logger.Info("geocoding cache revalidated", "tag", tag, "evicted", n)
	return n, nil
}

// cached serves key from the store or calls fetch and stores its result.
// Only non-empty results are stored so that "not found" can be retried.
// Store failures degrade to a direct lookup.
func cached[T any](ctx context.Context, c *CachedGeocoder, op, key string, tags []string, fetch func() (T, bool, error)) (T, error) {
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("geocoding cache read failed", "key", key, "error", err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			c.metrics.GeocodeCache.WithLabelValues(op, "hit").Inc()
			return v, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key)
	}
	c.metrics.GeocodeCache.WithLabelValues(op, "miss").Inc()

	v, nonEmpty, err := fetch()
	if err != nil || !nonEmpty {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.store.Set(ctx, key, raw, c.ttl, tags...); err != nil {
		c.logger.Warn("geocoding cache write failed", "key", key, "error", err)
	}
	return v, nil
}

func cacheKey(op string, parts ...string) string {
	return "geocode:" + op + ":" + strings.Join(parts, "|")
}
