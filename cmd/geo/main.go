// Command geo runs geocoding lookups against Geoapify from the terminal and
// converts between Israeli Transverse Mercator and WGS-84.
//
// Usage:
//
//	geo cities תל
//	geo streets הרצל --city "תל אביב"
//	geo address דיזנגוף --city "תל אביב" --number 50
//	geo itm 179687 665938
package main

import (
	"log/slog"
	"os"

	"github.com/couchcryptid/kosher-geo-service/internal/adapter/geoapify"
	"github.com/couchcryptid/kosher-geo-service/internal/config"
	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
	"github.com/mattn/go-isatty"
)

func main() {
	tty := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	root := newRootCmd(os.Stdout, tty, newGeocoder)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newGeocoder builds a client from the same environment as the server.
func newGeocoder() (domain.Geocoder, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return geoapify.NewClient(geoapify.Options{
		APIKey:       cfg.GeoapifyAPIKey,
		BaseURL:      cfg.GeoapifyBaseURL,
		MaxRetries:   cfg.GeoapifyMaxRetries,
		Timeout:      cfg.GeoapifyTimeout,
		RateLimit:    cfg.GeoapifyRateLimit,
		SearchRadius: cfg.GeoapifySearchRadius,
	}, observability.NewMetrics(), logger)
}
