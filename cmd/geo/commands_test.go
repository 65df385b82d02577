package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	args []string
}

func (s *stubGeocoder) CityCoordinates(_ context.Context, city string) (*domain.Coordinates, error) {
	s.args = []string{city}
	return &domain.Coordinates{Latitude: 32.794, Longitude: 34.9896}, nil
}

func (s *stubGeocoder) SearchCities(_ context.Context, keyword string) ([]string, error) {
	s.args = []string{keyword}
	return []string{"חדרה", "חיפה"}, nil
}

func (s *stubGeocoder) SearchStreets(_ context.Context, keyword, city string) ([]string, error) {
	s.args = []string{keyword, city}
	return nil, nil
}

func (s *stubGeocoder) AddressCoordinates(_ context.Context, address, city, number string) (*domain.Coordinates, error) {
	s.args = []string{address, city, number}
	return nil, nil
}

func run(t *testing.T, tty bool, g domain.Geocoder, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, tty, func() (domain.Geocoder, error) { return g, nil })
	root.SetArgs(args)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	return out.String(), err
}

func TestCitiesCommand_JSONWhenPiped(t *testing.T) {
	g := &stubGeocoder{}
	out, err := run(t, false, g, "cities", "ח")
	require.NoError(t, err)

	var cities []string
	require.NoError(t, json.Unmarshal([]byte(out), &cities))
	assert.Equal(t, []string{"חדרה", "חיפה"}, cities)
	assert.Equal(t, []string{"ח"}, g.args)
}

func TestCityCommand_TableOnTerminal(t *testing.T) {
	out, err := run(t, true, &stubGeocoder{}, "city", "חיפה")
	require.NoError(t, err)
	assert.Contains(t, out, "latitude")
	assert.Contains(t, out, "32.794000")
}

func TestCityCommand_JSONFlagOverridesTerminal(t *testing.T) {
	out, err := run(t, true, &stubGeocoder{}, "city", "חיפה", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"coordinates":{"latitude":32.794,"longitude":34.9896}}`, out)
}

func TestStreetsCommand_RequiresCity(t *testing.T) {
	_, err := run(t, false, &stubGeocoder{}, "streets", "הרצל")
	require.Error(t, err)
}

func TestStreetsCommand_EmptyResult(t *testing.T) {
	g := &stubGeocoder{}
	out, err := run(t, true, g, "streets", "הרצל", "--city", "חיפה")
	require.NoError(t, err)
	assert.Equal(t, "no street matched\n", out)
	assert.Equal(t, []string{"הרצל", "חיפה"}, g.args)
}

func TestAddressCommand_NoMatchJSON(t *testing.T) {
	g := &stubGeocoder{}
	out, err := run(t, false, g, "address", "דיזנגוף", "--city", "תל אביב", "--number", "50")
	require.NoError(t, err)
	assert.JSONEq(t, `{"coordinates":null}`, out)
	assert.Equal(t, []string{"דיזנגוף", "תל אביב", "50"}, g.args)
}

func TestITMCommands(t *testing.T) {
	out, err := run(t, false, nil, "itm", "219529.584", "626907.390")
	require.NoError(t, err)

	var got struct {
		Coordinates domain.Coordinates `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 31.7344, got.Coordinates.Latitude, 0.002)
	assert.InDelta(t, 35.2045, got.Coordinates.Longitude, 0.002)

	out, err = run(t, false, nil, "to-itm", "32.0853", "34.7818")
	require.NoError(t, err)

	var grid map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &grid))
	assert.InDelta(t, 180000, grid["easting"], 5000)
	assert.InDelta(t, 665000, grid["northing"], 5000)
}

func TestITMCommand_InvalidNumber(t *testing.T) {
	_, err := run(t, false, nil, "itm", "east", "626907")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "easting")
}
