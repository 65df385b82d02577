package geoapify

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/tidwall/gjson"
)

// Geoapify GeoJSON response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
	Geometry   struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

type properties struct {
	Name        string   `json:"name"`
	CountryCode string   `json:"country_code"`
	City        string   `json:"city"`
	Street      string   `json:"street"`
	Formatted   string   `json:"formatted"`
	ResultType  string   `json:"result_type"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// decodeFeatures validates and decodes a search response body. A body that
// is not JSON or lacks a features field is a protocol error, not an empty
// result.
func decodeFeatures(body []byte) ([]domain.Feature, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", domain.ErrMalformedResponse)
	}
	if !gjson.GetBytes(body, "features").IsArray() {
		return nil, fmt.Errorf("%w: missing features array", domain.ErrMalformedResponse)
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}

	out := make([]domain.Feature, 0, len(resp.Features))
	for _, f := range resp.Features {
		df, ok := f.toDomain()
		if ok {
			out = append(out, df)
		}
	}
	return out, nil
}

// toDomain maps a GeoJSON feature, preferring the lat/lon properties over
// the geometry. Features with no position at all are skipped.
func (f feature) toDomain() (domain.Feature, bool) {
	p := f.Properties
	out := domain.Feature{
		Name:        p.Name,
		CountryCode: p.CountryCode,
		City:        p.City,
		Street:      p.Street,
		Formatted:   p.Formatted,
		ResultType:  p.ResultType,
	}
	switch {
	case p.Lat != nil && p.Lon != nil:
		out.Lat, out.Lon = *p.Lat, *p.Lon
	case len(f.Geometry.Coordinates) == 2:
		out.Lon, out.Lat = f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	default:
		return domain.Feature{}, false
	}
	return out, true
}
