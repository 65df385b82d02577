package domain

import (
	"context"
	"errors"
	"log/slog"
)

// Values of Business.GeoSource.
const (
	GeoSourceAddress  = "address"   // street-level match
	GeoSourceCity     = "city"      // city centre fallback
	GeoSourceOriginal = "original"  // coordinates supplied upstream
	GeoSourceNotFound = "not_found" // provider had no candidate
	GeoSourceFailed   = "failed"    // provider request failed
)

// EnrichWithCoordinates resolves a business address to coordinates.
// It tries the street address first and falls back to the city centre.
// Failures degrade gracefully: the business is returned with GeoSource
// recording what happened instead of an error.
func EnrichWithCoordinates(ctx context.Context, b Business, geocoder Geocoder, logger *slog.Logger) Business {
	if b.Geo != nil {
		b.GeoSource = GeoSourceOriginal
		return b
	}
	if geocoder == nil {
		return b
	}

	if b.Address != "" {
		coords, err := geocoder.AddressCoordinates(ctx, b.Address, b.City, b.StreetNumber)
		switch {
		case errors.Is(err, ErrCityNotFound):
			b.GeoSource = GeoSourceNotFound
			return b
		case errors.Is(err, ErrInvalidInput):
			// Too-short street; the city may still resolve.
		case err != nil:
			logger.Warn("address geocoding failed",
				"business_id", b.ID,
				"address", b.Address,
				"city", b.City,
				"error", err,
			)
			b.GeoSource = GeoSourceFailed
			return b
		case coords != nil:
			b.Geo = coords
			b.GeoSource = GeoSourceAddress
			return b
		}
	}

	coords, err := geocoder.CityCoordinates(ctx, b.City)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			b.GeoSource = GeoSourceNotFound
			return b
		}
		logger.Warn("city geocoding failed",
			"business_id", b.ID,
			"city", b.City,
			"error", err,
		)
		b.GeoSource = GeoSourceFailed
		return b
	}
	if coords == nil {
		b.GeoSource = GeoSourceNotFound
		return b
	}
	b.Geo = coords
	b.GeoSource = GeoSourceCity
	return b
}
