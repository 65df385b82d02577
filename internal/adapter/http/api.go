package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
)

type citiesResponse struct {
	Cities []string `json:"cities"`
}

type streetsResponse struct {
	Streets []string `json:"streets"`
}

// coordinatesResponse carries a null coordinates field when nothing matched.
type coordinatesResponse struct {
	Coordinates *domain.Coordinates `json:"coordinates"`
}

type revalidateResponse struct {
	Scope   string `json:"scope"`
	Evicted int    `json:"evicted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearchCities(w http.ResponseWriter, r *http.Request) {
	cities, err := s.geocoder.SearchCities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, citiesResponse{Cities: nonNil(cities)})
}

func (s *Server) handleCityCoordinates(w http.ResponseWriter, r *http.Request) {
	coords, err := s.geocoder.CityCoordinates(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coordinatesResponse{Coordinates: coords})
}

func (s *Server) handleSearchStreets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	streets, err := s.geocoder.SearchStreets(r.Context(), q.Get("q"), q.Get("city"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, streetsResponse{Streets: nonNil(streets)})
}

func (s *Server) handleAddressCoordinates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coords, err := s.geocoder.AddressCoordinates(r.Context(), q.Get("address"), q.Get("city"), q.Get("number"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coordinatesResponse{Coordinates: coords})
}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")

	var (
		n   int
		err error
	)
	switch scope {
	case "all":
		n, err = s.cache.RevalidateGeocoding(r.Context())
	case "cities":
		n, err = s.cache.RevalidateCities(r.Context())
	case "streets":
		n, err = s.cache.RevalidateStreets(r.Context())
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown scope " + scope + ": want all, cities or streets"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revalidateResponse{Scope: scope, Evicted: n})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"status", status,
			"request_id", RequestID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps geocoding error categories to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCityNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRequestFailed), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
