package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "geo-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://api.geoapify.com/v1/geocode", cfg.GeoapifyBaseURL)
	assert.Equal(t, 3, cfg.GeoapifyMaxRetries)
	assert.Equal(t, 10*time.Second, cfg.GeoapifyTimeout)
	assert.InDelta(t, 5.0, cfg.GeoapifyRateLimit, 0)
	assert.Equal(t, 5000, cfg.GeoapifySearchRadius)

	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, 24*time.Hour, cfg.CacheDuration)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)

	assert.False(t, cfg.PipelineEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "business-addresses", cfg.KafkaSourceTopic)
	assert.Equal(t, "business-coordinates", cfg.KafkaSinkTopic)
	assert.Equal(t, "kosher-geo", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("GEOAPIFY_API_KEY", testAPIKey)
	t.Setenv("GEOAPIFY_BASE_URL", "http://localhost:8090")
	t.Setenv("GEOAPIFY_MAX_RETRIES", "5")
	t.Setenv("GEOAPIFY_TIMEOUT", "2s")
	t.Setenv("GEOAPIFY_RATE_LIMIT", "0")
	t.Setenv("GEOAPIFY_SEARCH_RADIUS", "8000")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_DURATION", "1h")
	t.Setenv("CACHE_SIZE", "250")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("PIPELINE_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, testAPIKey, cfg.GeoapifyAPIKey)
	assert.Equal(t, "http://localhost:8090", cfg.GeoapifyBaseURL)
	assert.Equal(t, 5, cfg.GeoapifyMaxRetries)
	assert.Equal(t, 2*time.Second, cfg.GeoapifyTimeout)
	assert.Zero(t, cfg.GeoapifyRateLimit)
	assert.Equal(t, 8000, cfg.GeoapifySearchRadius)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, time.Hour, cfg.CacheDuration)
	assert.Equal(t, 250, cfg.CacheSize)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPassword)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.PipelineEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
}

func TestLoad_MissingAPIKeyIsNotAConfigError(t *testing.T) {
	t.Setenv("GEOAPIFY_API_KEY", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.GeoapifyAPIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"GEOAPIFY_TIMEOUT", "bad"},
		{"GEOAPIFY_TIMEOUT", "0s"},
		{"GEOAPIFY_MAX_RETRIES", "0"},
		{"GEOAPIFY_MAX_RETRIES", "three"},
		{"GEOAPIFY_RATE_LIMIT", "-1"},
		{"GEOAPIFY_SEARCH_RADIUS", "0"},
		{"CACHE_DURATION", "forever"},
		{"CACHE_SIZE", "-5"},
		{"REDIS_DB", "x"},
		{"PIPELINE_ENABLED", "maybe"},
		{"CACHE_BACKEND", "memcached"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geo.env")
	require.NoError(t, os.WriteFile(path, []byte("GEOAPIFY_API_KEY=from-file\nCACHE_SIZE=42\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("CACHE_SIZE", "7")
	t.Setenv("GEOAPIFY_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEOAPIFY_API_KEY"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GeoapifyAPIKey)
	assert.Equal(t, 7, cfg.CacheSize, "process environment wins over the env file")
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	_, err := Load()
	require.NoError(t, err)
}
