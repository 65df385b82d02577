package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
)

// BusinessTransformer implements Transformer by parsing business records and
// resolving their coordinates.
type BusinessTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a BusinessTransformer. Pass a nil geocoder to pass
// records through without coordinates.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *BusinessTransformer {
	return &BusinessTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *BusinessTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Business, error) {
	b, err := domain.ParseBusiness(raw)
	if err != nil {
		return domain.Business{}, err
	}

	b = domain.EnrichWithCoordinates(ctx, b, t.geocoder, t.logger)
	return domain.StampProcessed(b), nil
}
