package domain

import (
	"context"
	"math"
)

// Coordinates is a WGS-84 latitude/longitude pair rounded to 6 decimal places.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Feature is a single candidate match returned by a geocoding provider.
// Features are ephemeral: they are filtered and discarded within one lookup.
type Feature struct {
	Name        string
	CountryCode string
	City        string
	Street      string
	Formatted   string
	ResultType  string
	Lat         float64
	Lon         float64
}

// CityName returns the feature's city, falling back to its name for
// city-typed results that only populate the latter.
func (f Feature) CityName() string {
	if f.City != "" {
		return f.City
	}
	return f.Name
}

// Coordinates returns the feature position at 6 decimal places.
func (f Feature) Coordinates() Coordinates {
	return Coordinates{
		Latitude:  RoundCoordinate(f.Lat),
		Longitude: RoundCoordinate(f.Lon),
	}
}

// RoundCoordinate rounds a degree value to 6 decimal places (~0.1m).
func RoundCoordinate(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// Geocoder resolves Hebrew free-text input into Israeli places.
// A nil result (or empty slice) with a nil error means no candidate matched.
type Geocoder interface {
	// CityCoordinates returns the centre of the named city.
	CityCoordinates(ctx context.Context, city string) (*Coordinates, error)

	// SearchCities returns city names matching keyword, deduplicated and sorted.
	SearchCities(ctx context.Context, keyword string) ([]string, error)

	// SearchStreets returns street names in city matching keyword, deduplicated and sorted.
	SearchStreets(ctx context.Context, keyword, city string) ([]string, error)

	// AddressCoordinates resolves a street address in city. streetNumber may be empty.
	AddressCoordinates(ctx context.Context, address, city, streetNumber string) (*Coordinates, error)
}
