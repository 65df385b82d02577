package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
)

const (
	defaultLimit = 10
	earthRadiusM = 6371000.0
)

type fixtureFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   map[string]any `json:"geometry"`
}

type fixture struct {
	Type     string           `json:"type"`
	Features []fixtureFeature `json:"features"`
}

// provider answers /search queries by filtering the fixture the way the real
// API narrows results: by type, country, circle and text.
type provider struct {
	features []fixtureFeature
	logger   *slog.Logger
}

func loadProvider(path string, logger *slog.Logger) (*provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &provider{features: fx.Features, logger: logger}, nil
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/search") {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if q.Get("apiKey") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Invalid apiKey"})
		return
	}

	f, err := parseFilter(q.Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"statusCode": 400, "message": err.Error()})
		return
	}

	limit := defaultLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}

	matches := make([]fixtureFeature, 0, limit)
	for _, feat := range p.features {
		if len(matches) == limit {
			break
		}
		if p.matches(feat, q.Get("text"), q.Get("type"), f) {
			matches = append(matches, feat)
		}
	}

	p.logger.Debug("search", "text", q.Get("text"), "type", q.Get("type"), "matches", len(matches))
	writeJSON(w, http.StatusOK, fixture{Type: "FeatureCollection", Features: matches})
}

type filter struct {
	countryCode string
	circle      bool
	lon, lat    float64
	radius      float64
}

// parseFilter reads "countrycode:il|circle:lon,lat,radius".
func parseFilter(raw string) (filter, error) {
	var f filter
	if raw == "" {
		return f, nil
	}
	for _, part := range strings.Split(raw, "|") {
		kind, value, ok := strings.Cut(part, ":")
		if !ok {
			return f, fmt.Errorf("invalid filter %q", part)
		}
		switch kind {
		case "countrycode":
			f.countryCode = strings.ToLower(value)
		case "circle":
			fields := strings.Split(value, ",")
			if len(fields) != 3 {
				return f, fmt.Errorf("invalid circle %q", value)
			}
			var nums [3]float64
			for i, s := range fields {
				n, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return f, fmt.Errorf("invalid circle %q", value)
				}
				nums[i] = n
			}
			f.circle, f.lon, f.lat, f.radius = true, nums[0], nums[1], nums[2]
		default:
			return f, fmt.Errorf("unsupported filter %q", kind)
		}
	}
	return f, nil
}

func (p *provider) matches(feat fixtureFeature, text, typ string, f filter) bool {
	props := feat.Properties
	resultType := str(props["result_type"])

	switch typ {
	case "":
	case "city":
		if resultType != "city" && resultType != "municipality" && resultType != "locality" {
			return false
		}
	default:
		if resultType != typ {
			return false
		}
	}

	if f.countryCode != "" && !strings.EqualFold(str(props["country_code"]), f.countryCode) {
		return false
	}

	lat, _ := props["lat"].(float64)
	lon, _ := props["lon"].(float64)
	if f.circle && distance(f.lat, f.lon, lat, lon) > f.radius {
		return false
	}

	return textMatches(props, text)
}

// textMatches compares the street part of the query, digits removed,
// against the feature's name, street and formatted address.
func textMatches(props map[string]any, text string) bool {
	needle := domain.NormalizeHebrew(domain.CleanStreetName(text))
	if needle == "" {
		return true
	}
	for _, key := range []string{"name", "street", "formatted"} {
		hay := domain.NormalizeHebrew(str(props[key]))
		if hay != "" && (strings.Contains(hay, needle) || strings.Contains(needle, hay)) {
			return true
		}
	}
	return false
}

// distance is the haversine great-circle distance in meters.
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
