package geoapify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
)

// LazyGeocoder defers construction of its underlying geocoder to the first
// lookup. Construction runs once; concurrent first callers wait for it and
// every caller observes the same geocoder or the same error.
type LazyGeocoder struct {
	get func() (domain.Geocoder, error)

	mu       sync.Mutex
	resolver CityResolver
}

// NewLazyGeocoder wraps a geocoder factory.
func NewLazyGeocoder(factory func() (domain.Geocoder, error)) *LazyGeocoder {
	l := &LazyGeocoder{}
	l.get = sync.OnceValues(func() (domain.Geocoder, error) {
		g, err := factory()
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		r := l.resolver
		l.mu.Unlock()
		if u, ok := g.(cityResolverUser); ok && r != nil {
			u.UseCityResolver(r)
		}
		return g, nil
	})
	return l
}

// UseCityResolver is applied to the geocoder once it is built.
func (l *LazyGeocoder) UseCityResolver(r CityResolver) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolver = r
}

// NewLazyClient defers NewClient, so a missing API key surfaces as an error
// on the first lookup instead of at startup.
func NewLazyClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *LazyGeocoder {
	return NewLazyGeocoder(func() (domain.Geocoder, error) {
		c, err := NewClient(opts, metrics, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (l *LazyGeocoder) CityCoordinates(ctx context.Context, city string) (*domain.Coordinates, error) {
	g, err := l.get()
	if err != nil {
		return nil, err
	}
	return g.CityCoordinates(ctx, city)
}

func (l *LazyGeocoder) SearchCities(ctx context.Context, keyword string) ([]string, error) {
	g, err := l.get()
	if err != nil {
		return nil, err
	}
	return g.SearchCities(ctx, keyword)
}

func (l *LazyGeocoder) SearchStreets(ctx context.Context, keyword, city string) ([]string, error) {
	g, err := l.get()
	if err != nil {
		return nil, err
	}
	return g.SearchStreets(ctx, keyword, city)
}

func (l *LazyGeocoder) AddressCoordinates(ctx context.Context, address, city, streetNumber string) (*domain.Coordinates, error) {
	g, err := l.get()
	if err != nil {
		return nil, err
	}
	return g.AddressCoordinates(ctx, address, city, streetNumber)
}
