// Command mockprovider serves a Geoapify-compatible /search endpoint from a
// GeoJSON fixture so the service can run end to end without an API key.
//
// Usage:
//
//	go run ./cmd/mockprovider -fixture data/mock/geoapify_features.json -addr :8090
//	GEOAPIFY_API_KEY=dev GEOAPIFY_BASE_URL=http://localhost:8090 go run ./cmd/server
package main

import (
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	fixture := flag.String("fixture", "data/mock/geoapify_features.json", "GeoJSON FeatureCollection to serve")
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	p, err := loadProvider(*fixture, logger)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixture, "error", err)
		os.Exit(1)
	}
	logger.Info("mock geoapify provider listening", "addr", *addr, "features", len(p.features))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           p,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("mock provider stopped", "error", err)
		os.Exit(1)
	}
}
