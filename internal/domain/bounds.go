package domain

import "strings"

// IsraelCountryCode is the ISO 3166-1 code every accepted feature must carry.
const IsraelCountryCode = "il"

// Bounds is a rectangular latitude/longitude box.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// IsraelBounds is a loose rectangle around Israel. It admits some
// near-border points from neighbouring countries; the country code check
// in InIsrael rejects most of those.
var IsraelBounds = Bounds{
	MinLat: 29.4,
	MaxLat: 33.4,
	MinLon: 34.2,
	MaxLon: 35.9,
}

// Contains reports whether lat/lon falls inside the box, edges included.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// InIsrael is the sole acceptance gate for provider features.
func InIsrael(f Feature) bool {
	return strings.EqualFold(f.CountryCode, IsraelCountryCode) && IsraelBounds.Contains(f.Lat, f.Lon)
}
