//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/kosher-geo-service/internal/adapter/geoapify"
	"github.com/couchcryptid/kosher-geo-service/internal/domain"
	"github.com/couchcryptid/kosher-geo-service/internal/observability"
	goredis "github.com/go-redis/redis/v8"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("kosher-geo-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// startRedis runs a Redis container and returns a connected client.
func startRedis(ctx context.Context, t *testing.T) *goredis.Client {
	t.Helper()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start redis container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := goredis.ParseURL(uri)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

type fakeFeature struct {
	name, city, resultType, formatted string
	lat, lon                          float64
}

func (f fakeFeature) toJSON() map[string]any {
	return map[string]any{
		"type": "Feature",
		"properties": map[string]any{
			"name":         f.name,
			"city":         f.city,
			"country_code": "il",
			"result_type":  f.resultType,
			"formatted":    f.formatted,
			"lat":          f.lat,
			"lon":          f.lon,
		},
		"geometry": map[string]any{
			"type":        "Point",
			"coordinates": []float64{f.lon, f.lat},
		},
	}
}

var (
	telAviv    = fakeFeature{name: "תל אביב", city: "תל אביב", resultType: "city", formatted: "תל אביב", lat: 32.0853, lon: 34.7818}
	dizengoff  = fakeFeature{name: "דיזנגוף 50", city: "תל אביב", resultType: "building", formatted: "דיזנגוף 50, תל אביב", lat: 32.0775, lon: 34.7744}
	rabbiAkiva = fakeFeature{name: "רבי עקיבא", city: "בני ברק", resultType: "street", formatted: "רבי עקיבא, בני ברק", lat: 32.085, lon: 34.835}
	bneiBrak   = fakeFeature{name: "בני ברק", city: "בני ברק", resultType: "city", formatted: "בני ברק", lat: 32.0807, lon: 34.8338}
)

// fakeProvider answers Geoapify search requests for a handful of known
// places and counts requests.
type fakeProvider struct {
	server *httptest.Server
	hits   atomic.Int64
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.hits.Add(1)
		q := r.URL.Query()
		text := domain.NormalizeHebrew(q.Get("text"))

		var features []map[string]any
		switch {
		case q.Get("type") == "city" && strings.Contains(text, "תל אביב"):
			features = append(features, telAviv.toJSON())
		case q.Get("type") == "city" && strings.Contains(text, "בני ברק"):
			features = append(features, bneiBrak.toJSON())
		case q.Get("type") == "city":
		case strings.Contains(text, "דיזנגוף"):
			features = append(features, dizengoff.toJSON())
		case strings.Contains(text, "עקיבא"):
			features = append(features, rabbiAkiva.toJSON())
		}
		if features == nil {
			features = []map[string]any{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "FeatureCollection", "features": features})
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) client(t *testing.T, metrics *observability.Metrics) *geoapify.Client {
	t.Helper()
	c, err := geoapify.NewClient(geoapify.Options{
		APIKey:     "test-key",
		BaseURL:    p.server.URL,
		MaxRetries: 2,
		Timeout:    5 * time.Second,
	}, metrics, discardLogger())
	require.NoError(t, err)
	return c
}
