package geoapify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Geoapify geocoding API root.
	DefaultBaseURL = "https://api.geoapify.com/v1/geocode"

	searchEndpoint = "search"
	maxErrorBody   = 512
)

// Options configures a Client.
type Options struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int           // total attempts per request
	Timeout      time.Duration // per attempt
	RateLimit    float64       // requests per second, 0 disables pacing
	SearchRadius int           // meters around a city centre for street and address queries
}

// Client implements domain.Geocoder using the Geoapify geocoding API.
type Client struct {
	apiKey       string
	baseURL      string
	maxRetries   int
	timeout      time.Duration
	searchRadius int
	retryUnit    time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	cities       CityResolver
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// CityResolver geocodes the city that street and address lookups are
// scoped to.
type CityResolver interface {
	CityCoordinates(ctx context.Context, city string) (*domain.Coordinates, error)
}

// cityResolverUser is implemented by geocoders whose dependent lookups can
// resolve their city through another geocoder, typically a cache.
type cityResolverUser interface {
	UseCityResolver(r CityResolver)
}

// NewClient creates a Geoapify client. It fails with domain.ErrMissingAPIKey
// when no key is configured, before any network activity.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, &domain.GeocodingError{Message: "GEOAPIFY_API_KEY is not set", Err: domain.ErrMissingAPIKey}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SearchRadius <= 0 {
		opts.SearchRadius = 5000
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	c := &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		maxRetries:   opts.MaxRetries,
		timeout:      opts.Timeout,
		searchRadius: opts.SearchRadius,
		retryUnit:    time.Second,
		httpClient:   &http.Client{},
		limiter:      rate.NewLimiter(limit, 1),
		metrics:      metrics,
		logger:       logger,
	}
	c.cities = c
	return c, nil
}

// UseCityResolver routes the city lookup behind SearchStreets and
// AddressCoordinates through r. It must be called before the first lookup.
func (c *Client) UseCityResolver(r CityResolver) {
	c.cities = r
}

// attemptError describes why a single request attempt failed.
type attemptError struct {
	status    int
	reason    string // metrics label, empty when the failure is permanent
	err       error
	retryable bool
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// search issues one geocoding query with bounded retries and returns the
// features that pass the Israel gate. params must not carry credentials or
// locale; those are appended here.
func (c *Client) search(ctx context.Context, params url.Values, operation string) ([]domain.Feature, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("apiKey", c.apiKey)
	query.Set("lang", "he")
	query.Set("format", "geojson")
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, searchEndpoint, query.Encode())

	start := time.Now()
	defer func() {
		c.metrics.GeocodeAPIDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	var last *attemptError
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.GeocodingError{Message: "geocoding request canceled", Err: err}
		}

		features, aerr := c.attempt(ctx, fullURL)
		if aerr == nil {
			return c.israelOnly(features, operation), nil
		}
		if ctx.Err() != nil {
			return nil, &domain.GeocodingError{Message: "geocoding request canceled", Err: ctx.Err()}
		}
		if !aerr.retryable {
			return nil, &domain.GeocodingError{
				Message:    "geocoding request rejected",
				StatusCode: aerr.status,
				Err:        fmt.Errorf("%w: %w", domain.ErrRequestFailed, aerr.err),
			}
		}

		last = aerr
		if attempt == c.maxRetries {
			break
		}

		wait := c.backoff(attempt, aerr.status)
		c.metrics.GeocodeRetries.WithLabelValues(aerr.reason).Inc()
		c.logger.Warn("geocoding request failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"status", aerr.status,
			"wait", wait,
			"error", aerr.err,
		)
		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, &domain.GeocodingError{Message: "geocoding request canceled", Err: err}
		}
	}

	return nil, &domain.GeocodingError{
		Message:    fmt.Sprintf("geocoding request failed after %d attempts", c.maxRetries),
		StatusCode: last.status,
		Err:        fmt.Errorf("%w: %w", domain.ErrRequestFailed, last.err),
	}
}

// attempt performs a single HTTP round trip bounded by the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, fullURL string) ([]domain.Feature, *attemptError) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &attemptError{err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := "network"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return nil, &attemptError{reason: reason, retryable: true, err: fmt.Errorf("geoapify request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		aerr := &attemptError{
			status: resp.StatusCode,
			err:    fmt.Errorf("geoapify API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			aerr.reason, aerr.retryable = "rate_limited", true
		case resp.StatusCode >= http.StatusInternalServerError:
			aerr.reason, aerr.retryable = "server_error", true
		}
		return nil, aerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		reason := "network"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return nil, &attemptError{status: resp.StatusCode, reason: reason, retryable: true, err: fmt.Errorf("read response: %w", err)}
	}

	features, err := decodeFeatures(body)
	if err != nil {
		return nil, &attemptError{status: resp.StatusCode, reason: "malformed", retryable: true, err: err}
	}
	return features, nil
}

// backoff returns the wait before the attempt after the given one: linear
// for rate limiting, exponential otherwise.
func (c *Client) backoff(attempt, status int) time.Duration {
	if status == http.StatusTooManyRequests {
		return time.Duration(attempt) * c.retryUnit
	}
	return time.Duration(1<<attempt) * c.retryUnit
}

func (c *Client) israelOnly(features []domain.Feature, operation string) []domain.Feature {
	kept := features[:0]
	for _, f := range features {
		if domain.InIsrael(f) {
			kept = append(kept, f)
		}
	}
	if dropped := len(features) - len(kept); dropped > 0 {
		c.logger.Debug("dropped features outside israel", "operation", operation, "dropped", dropped)
	}
	return kept
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
