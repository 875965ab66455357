package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "does_not_exist")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, "https://courier-api.pathao.com/api/v1", cfg.PathaoAPIURL)
	assert.Equal(t, 1, cfg.PathaoStoreID)
	assert.Equal(t, "https://portal.packzy.com/api/v1", cfg.SteadfastAPIURL)
	assert.Equal(t, "https://openapi.redx.com.bd/v1.0.0-beta", cfg.RedxAPIURL)
	assert.Equal(t, "logistics.dispatch.events", cfg.KafkaDispatchTopic)
	assert.Equal(t, 24*time.Hour, cfg.GeoCacheTTL)
	assert.Zero(t, cfg.StatusPollInterval)
	assert.Equal(t, 50, cfg.StatusPollBatch)
	assert.False(t, cfg.GeoLiveLookup)
	assert.Empty(t, cfg.KafkaBrokerList())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PATHAO_CLIENT_ID", "cid")
	t.Setenv("PATHAO_STORE_ID", "42")
	t.Setenv("STEADFAST_API_KEY", "sk")
	t.Setenv("REDX_API_URL", "https://sandbox.redx.com.bd/v1.0.0-beta")
	t.Setenv("GEO_LIVE_LOOKUP", "true")
	t.Setenv("STATUS_POLL_INTERVAL", "5m")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := Load(t.TempDir(), "does_not_exist")
	require.NoError(t, err)

	assert.Equal(t, "cid", cfg.PathaoClientID)
	assert.Equal(t, 42, cfg.PathaoStoreID)
	assert.Equal(t, "sk", cfg.SteadfastAPIKey)
	assert.Equal(t, "https://sandbox.redx.com.bd/v1.0.0-beta", cfg.RedxAPIURL)
	assert.True(t, cfg.GeoLiveLookup)
	assert.Equal(t, 5*time.Minute, cfg.StatusPollInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokerList())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_PORT: 9090\nREDX_API_KEY: from-file\nAPI_KEY_HASHES: aaa,bbb\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dispatch.yaml"), []byte(content), 0o600))

	cfg, err := Load(dir, "dispatch")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "from-file", cfg.RedxAPIKey)
	assert.Equal(t, []string{"aaa", "bbb"}, cfg.APIKeyHashList())
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("HTTP_PORT: [unclosed"), 0o600))

	_, err := Load(dir, "broken")
	assert.Error(t, err)
}
