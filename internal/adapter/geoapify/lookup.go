package geoapify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Operation names, used as metrics labels and cache key prefixes.
const (
	OpCityCoordinates    = "city_coordinates"
	OpSearchCities       = "search_cities"
	OpSearchStreets      = "search_streets"
	OpAddressCoordinates = "address_coordinates"
)

const (
	cityLookupLimit   = 5
	citySearchLimit   = 10
	streetSearchLimit = 20
	addressLimit      = 5
)

var (
	cityResultTypes   = map[string]bool{"city": true, "locality": true, "municipality": true}
	streetResultTypes = map[string]bool{"street": true, "amenity": true, "building": true}
)

// CityCoordinates returns the centre of city, preferring a candidate whose
// city name equals the input over the first Israeli candidate.
func (c *Client) CityCoordinates(ctx context.Context, city string) (*domain.Coordinates, error) {
	term, err := domain.ValidateSearchTerm(city)
	if err != nil {
		return nil, err
	}

	features, err := c.search(ctx, url.Values{
		"text":   {term},
		"type":   {"city"},
		"filter": {c.countryFilter()},
		"limit":  {strconv.Itoa(cityLookupLimit)},
	}, OpCityCoordinates)
	if err != nil {
		c.record(OpCityCoordinates, "error")
		return nil, err
	}
	if len(features) == 0 {
		c.record(OpCityCoordinates, "empty")
		return nil, nil
	}

	best := features[0]
	for _, f := range features {
		if domain.CitiesEqual(f.CityName(), term) {
			best = f
			break
		}
	}
	c.record(OpCityCoordinates, "success")
	coords := best.Coordinates()
	return &coords, nil
}

// SearchCities returns Israeli city names matching keyword. Names that
// normalize identically collapse to their shortest spelling.
func (c *Client) SearchCities(ctx context.Context, keyword string) ([]string, error) {
	term, err := domain.ValidateSearchTerm(keyword)
	if err != nil {
		return nil, err
	}

	features, err := c.search(ctx, url.Values{
		"text":   {term},
		"type":   {"city"},
		"filter": {c.countryFilter()},
		"limit":  {strconv.Itoa(citySearchLimit)},
	}, OpSearchCities)
	if err != nil {
		c.record(OpSearchCities, "error")
		return nil, err
	}

	byKey := make(map[string]string)
	var order []string
	for _, f := range features {
		if !cityResultTypes[f.ResultType] {
			continue
		}
		name := strings.TrimSpace(f.CityName())
		key := domain.NormalizeCity(name)
		if key == "" {
			continue
		}
		existing, seen := byKey[key]
		if !seen {
			order = append(order, key)
			byKey[key] = name
			continue
		}
		if len([]rune(name)) < len([]rune(existing)) {
			byKey[key] = name
		}
	}

	cities := make([]string, 0, len(order))
	for _, key := range order {
		cities = append(cities, byKey[key])
	}
	sortHebrew(cities)

	c.record(OpSearchCities, outcome(len(cities)))
	return cities, nil
}

// SearchStreets returns street names in city matching keyword. The city is
// resolved first; a city that cannot be geocoded is an error.
func (c *Client) SearchStreets(ctx context.Context, keyword, city string) ([]string, error) {
	term, err := domain.ValidateSearchTerm(keyword)
	if err != nil {
		return nil, err
	}
	cityTerm, err := domain.ValidateSearchTerm(city)
	if err != nil {
		return nil, err
	}

	centre, err := c.resolveCity(ctx, cityTerm)
	if err != nil {
		c.record(OpSearchStreets, "error")
		return nil, err
	}

	features, err := c.search(ctx, url.Values{
		"text":   {term},
		"type":   {"street"},
		"filter": {c.circleFilter(centre)},
		"limit":  {strconv.Itoa(streetSearchLimit)},
	}, OpSearchStreets)
	if err != nil {
		c.record(OpSearchStreets, "error")
		return nil, err
	}

	set := make(map[string]struct{})
	for _, f := range features {
		if !streetResultTypes[f.ResultType] || !domain.CitiesEqual(f.City, cityTerm) {
			continue
		}
		name := domain.CleanStreetName(streetText(f))
		if name == "" || !domain.StreetMatches(name, term) {
			continue
		}
		set[name] = struct{}{}
	}

	streets := make([]string, 0, len(set))
	for name := range set {
		streets = append(streets, name)
	}
	sortHebrew(streets)

	c.record(OpSearchStreets, outcome(len(streets)))
	return streets, nil
}

// AddressCoordinates resolves a street address within city. With a street
// number it first queries "address number, city", then "address, city",
// preferring a candidate whose formatted address contains the number.
func (c *Client) AddressCoordinates(ctx context.Context, address, city, streetNumber string) (*domain.Coordinates, error) {
	addr, err := domain.ValidateSearchTerm(address)
	if err != nil {
		return nil, err
	}
	cityTerm, err := domain.ValidateSearchTerm(city)
	if err != nil {
		return nil, err
	}
	number := strings.TrimSpace(streetNumber)

	centre, err := c.resolveCity(ctx, cityTerm)
	if err != nil {
		c.record(OpAddressCoordinates, "error")
		return nil, err
	}

	queries := []string{fmt.Sprintf("%s, %s", addr, cityTerm)}
	if number != "" {
		queries = append([]string{fmt.Sprintf("%s %s, %s", addr, number, cityTerm)}, queries...)
	}

	for _, q := range queries {
		features, err := c.search(ctx, url.Values{
			"text":   {q},
			"filter": {c.circleFilter(centre)},
			"limit":  {strconv.Itoa(addressLimit)},
		}, OpAddressCoordinates)
		if err != nil {
			c.record(OpAddressCoordinates, "error")
			return nil, err
		}

		if f, ok := pickAddress(features, cityTerm, number); ok {
			c.record(OpAddressCoordinates, "success")
			coords := f.Coordinates()
			return &coords, nil
		}
	}

	c.record(OpAddressCoordinates, "empty")
	return nil, nil
}

// resolveCity geocodes the city a dependent lookup is scoped to, through
// the configured CityResolver.
func (c *Client) resolveCity(ctx context.Context, city string) (domain.Coordinates, error) {
	coords, err := c.cities.CityCoordinates(ctx, city)
	if err != nil {
		return domain.Coordinates{}, err
	}
	if coords == nil {
		return domain.Coordinates{}, domain.NewCityNotFoundError(city)
	}
	return *coords, nil
}

func (c *Client) countryFilter() string {
	return "countrycode:" + domain.IsraelCountryCode
}

func (c *Client) circleFilter(centre domain.Coordinates) string {
	return fmt.Sprintf("%s|circle:%s,%s,%d",
		c.countryFilter(),
		strconv.FormatFloat(centre.Longitude, 'f', -1, 64),
		strconv.FormatFloat(centre.Latitude, 'f', -1, 64),
		c.searchRadius,
	)
}

func (c *Client) record(operation, result string) {
	c.metrics.GeocodeRequests.WithLabelValues(operation, result).Inc()
}

// pickAddress selects among same-city candidates, preferring one whose
// formatted address contains number.
func pickAddress(features []domain.Feature, city, number string) (domain.Feature, bool) {
	var first *domain.Feature
	for i := range features {
		f := &features[i]
		if !domain.CitiesEqual(f.City, city) {
			continue
		}
		if number != "" && strings.Contains(f.Formatted, number) {
			return *f, true
		}
		if first == nil {
			first = f
		}
	}
	if first == nil {
		return domain.Feature{}, false
	}
	return *first, true
}

// streetText returns the raw street string of a feature.
func streetText(f domain.Feature) string {
	if f.Street != "" {
		return f.Street
	}
	return f.Name
}

// sortHebrew orders names by Hebrew collation rules.
func sortHebrew(names []string) {
	collate.New(language.Hebrew).SortStrings(names)
}

func outcome(n int) string {
	if n == 0 {
		return "empty"
	}
	return "success"
}
