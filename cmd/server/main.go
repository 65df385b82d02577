package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/adapter/geoapify"
	httpadapter "github.com/couchcryptid/kosher-geo-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/kosher-geo-service/internal/adapter/kafka"
	"github.com/couchcryptid/kosher-geo-service/internal/cache"
	"github.com/couchcryptid/kosher-geo-service/internal/config"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
	"github.com/couchcryptid/kosher-geo-service/internal/pipeline"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ready := &readiness{}

	store, closeStore, err := newCacheStore(ctx, cfg, ready)
	if err != nil {
		logger.Error("failed to initialize cache", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()
	logger.Info("geocoding cache ready", "backend", cfg.CacheBackend, "ttl", cfg.CacheDuration)

	// The client is built on first lookup so the API can start without a key.
	if cfg.GeoapifyAPIKey == "" {
		logger.Warn("GEOAPIFY_API_KEY is not set, geocoding lookups will fail")
	}
	client := geoapify.NewLazyClient(geoapify.Options{
		APIKey:       cfg.GeoapifyAPIKey,
		BaseURL:      cfg.GeoapifyBaseURL,
		MaxRetries:   cfg.GeoapifyMaxRetries,
		Timeout:      cfg.GeoapifyTimeout,
		RateLimit:    cfg.GeoapifyRateLimit,
		SearchRadius: cfg.GeoapifySearchRadius,
	}, metrics, logger)
	geocoder := geoapify.NewCachedGeocoder(client, store, cfg.CacheDuration, metrics, logger)

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.PipelineEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(geocoder, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready.add(p.CheckReadiness)
		logger.Info("business enrichment pipeline enabled",
			"source", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, geocoder, geocoder, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start enrichment pipeline.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newCacheStore builds the configured cache backend. The Redis backend is
// pinged once at startup and registered as a readiness check.
func newCacheStore(ctx context.Context, cfg *config.Config, ready *readiness) (cache.Store, func(), error) {
	if cfg.CacheBackend != config.CacheBackendRedis {
		return cache.NewMemoryStore(cfg.CacheSize, nil), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := cache.NewRedisStore(client)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
	}

	ready.add(store.Ping)
	return store, func() { _ = client.Close() }, nil
}
