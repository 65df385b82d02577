package domain

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by GeocodingError. Match them with errors.Is.
var (
	ErrMissingAPIKey     = errors.New("geocoding API key is not configured")
	ErrInvalidInput      = errors.New("invalid search input")
	ErrCityNotFound      = errors.New("city not found")
	ErrMalformedResponse = errors.New("malformed geocoding response")
	ErrRequestFailed     = errors.New("geocoding request failed")
)

// GeocodingError is the single error type raised by the geocoding subsystem.
// StatusCode is the upstream HTTP status when one was received, 0 otherwise.
type GeocodingError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *GeocodingError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError reports a search term rejected before any network call.
func NewInvalidInputError(message string) *GeocodingError {
	return &GeocodingError{Message: message, Err: ErrInvalidInput}
}

// NewCityNotFoundError reports a dependent lookup whose city could not be geocoded.
func NewCityNotFoundError(city string) *GeocodingError {
	return &GeocodingError{Message: fmt.Sprintf("could not geocode city %q", city), Err: ErrCityNotFound}
}

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.StatusCode
	}
	return 0
}
