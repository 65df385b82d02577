package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	addressResult *Coordinates
	addressErr    error
	cityResult    *Coordinates
	cityErr       error
	addressCalls  int
	cityCalls     int
}

func (m *mockGeocoder) CityCoordinates(_ context.Context, _ string) (*Coordinates, error) {
	m.cityCalls++
	return m.cityResult, m.cityErr
}

func (m *mockGeocoder) SearchCities(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (m *mockGeocoder) SearchStreets(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}

func (m *mockGeocoder) AddressCoordinates(_ context.Context, _, _, _ string) (*Coordinates, error) {
	m.addressCalls++
	return m.addressResult, m.addressErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	dizengoff50 = &Coordinates{Latitude: 32.07857, Longitude: 34.774238}
	telAviv     = &Coordinates{Latitude: 32.0853, Longitude: 34.781768}
)

func newBusiness() Business {
	return Business{ID: "biz-1", Address: "דיזנגוף", StreetNumber: "50", City: "תל אביב"}
}

// --- tests ---

func TestEnrichWithCoordinates_NilGeocoder(t *testing.T) {
	b := EnrichWithCoordinates(context.Background(), newBusiness(), nil, discardLogger())

	assert.Nil(t, b.Geo)
	assert.Empty(t, b.GeoSource)
}

func TestEnrichWithCoordinates_AddressMatch(t *testing.T) {
	geo := &mockGeocoder{addressResult: dizengoff50}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, dizengoff50, b.Geo)
	assert.Equal(t, GeoSourceAddress, b.GeoSource)
	assert.Equal(t, 1, geo.addressCalls)
	assert.Equal(t, 0, geo.cityCalls)
}

func TestEnrichWithCoordinates_CityFallback(t *testing.T) {
	geo := &mockGeocoder{cityResult: telAviv}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, telAviv, b.Geo)
	assert.Equal(t, GeoSourceCity, b.GeoSource)
	assert.Equal(t, 1, geo.addressCalls)
	assert.Equal(t, 1, geo.cityCalls)
}

func TestEnrichWithCoordinates_NoAddressUsesCity(t *testing.T) {
	geo := &mockGeocoder{cityResult: telAviv}
	b := newBusiness()
	b.Address = ""

	b = EnrichWithCoordinates(context.Background(), b, geo, discardLogger())

	assert.Equal(t, GeoSourceCity, b.GeoSource)
	assert.Equal(t, 0, geo.addressCalls)
}

func TestEnrichWithCoordinates_ShortAddressFallsBackToCity(t *testing.T) {
	geo := &mockGeocoder{
		addressErr: NewInvalidInputError("search term must contain at least 2 characters"),
		cityResult: telAviv,
	}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, GeoSourceCity, b.GeoSource)
	assert.Equal(t, telAviv, b.Geo)
}

func TestEnrichWithCoordinates_CityNotFound(t *testing.T) {
	geo := &mockGeocoder{addressErr: NewCityNotFoundError("עיר לא קיימת")}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, GeoSourceNotFound, b.GeoSource)
	assert.Nil(t, b.Geo)
	assert.Equal(t, 0, geo.cityCalls)
}

func TestEnrichWithCoordinates_NothingFound(t *testing.T) {
	geo := &mockGeocoder{}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, GeoSourceNotFound, b.GeoSource)
	assert.Nil(t, b.Geo)
}

func TestEnrichWithCoordinates_RequestFailure_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{addressErr: &GeocodingError{Message: "retries exhausted", StatusCode: 429, Err: ErrRequestFailed}}

	b := EnrichWithCoordinates(context.Background(), newBusiness(), geo, discardLogger())

	assert.Equal(t, GeoSourceFailed, b.GeoSource)
	assert.Nil(t, b.Geo)
	assert.Equal(t, 0, geo.cityCalls)
}

func TestEnrichWithCoordinates_CityFailure(t *testing.T) {
	geo := &mockGeocoder{cityErr: errors.New("connection reset")}
	b := newBusiness()
	b.Address = ""

	b = EnrichWithCoordinates(context.Background(), b, geo, discardLogger())

	assert.Equal(t, GeoSourceFailed, b.GeoSource)
}

func TestEnrichWithCoordinates_SuppliedCoordinatesPreserved(t *testing.T) {
	geo := &mockGeocoder{addressResult: dizengoff50}
	b := newBusiness()
	b.Geo = &Coordinates{Latitude: 32.1, Longitude: 34.8}

	b = EnrichWithCoordinates(context.Background(), b, geo, discardLogger())

	assert.Equal(t, GeoSourceOriginal, b.GeoSource)
	assert.Equal(t, 32.1, b.Geo.Latitude)
	assert.Equal(t, 0, geo.addressCalls)
}
