package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting of the dispatch service. Courier credentials use
// the unprefixed variable names the storefront deployment already exports.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPPort int    `mapstructure:"HTTP_PORT"`

	HTTPClientTimeout time.Duration `mapstructure:"HTTP_CLIENT_TIMEOUT"`

	PostgresDSN        string `mapstructure:"POSTGRES_DSN"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	KafkaBrokers       string `mapstructure:"KAFKA_BROKERS"`
	KafkaDispatchTopic string `mapstructure:"KAFKA_DISPATCH_TOPIC"`

	JWTSecret    string `mapstructure:"JWT_SECRET"`
	APIKeyHashes string `mapstructure:"API_KEY_HASHES"`

	GeoTablesFile string        `mapstructure:"GEO_TABLES_FILE"`
	GeoLiveLookup bool          `mapstructure:"GEO_LIVE_LOOKUP"`
	GeoCacheTTL   time.Duration `mapstructure:"GEO_CACHE_TTL"`

	StatusPollInterval time.Duration `mapstructure:"STATUS_POLL_INTERVAL"`
	StatusPollBatch    int           `mapstructure:"STATUS_POLL_BATCH"`

	PathaoClientID     string `mapstructure:"PATHAO_CLIENT_ID"`
	PathaoClientSecret string `mapstructure:"PATHAO_CLIENT_SECRET"`
	PathaoUsername     string `mapstructure:"PATHAO_USERNAME"`
	PathaoPassword     string `mapstructure:"PATHAO_PASSWORD"`
	PathaoAPIURL       string `mapstructure:"PATHAO_API_URL"`
	PathaoStoreID      int    `mapstructure:"PATHAO_STORE_ID"`

	SteadfastAPIKey    string `mapstructure:"STEADFAST_API_KEY"`
	SteadfastSecretKey string `mapstructure:"STEADFAST_SECRET_KEY"`
	SteadfastAPIURL    string `mapstructure:"STEADFAST_API_URL"`

	RedxAPIKey string `mapstructure:"REDX_API_KEY"`
	RedxAPIURL string `mapstructure:"REDX_API_URL"`
}

var defaults = map[string]any{
	"LOG_LEVEL":            "info",
	"HTTP_PORT":            8080,
	"HTTP_CLIENT_TIMEOUT":  "30s",
	"POSTGRES_DSN":         "",
	"REDIS_ADDR":           "",
	"REDIS_PASSWORD":       "",
	"REDIS_DB":             0,
	"KAFKA_BROKERS":        "",
	"KAFKA_DISPATCH_TOPIC": "logistics.dispatch.events",
	"JWT_SECRET":           "",
	"API_KEY_HASHES":       "",
	"GEO_TABLES_FILE":      "",
	"GEO_LIVE_LOOKUP":      false,
	"GEO_CACHE_TTL":        "24h",
	"STATUS_POLL_INTERVAL": "0s",
	"STATUS_POLL_BATCH":    50,
	"PATHAO_CLIENT_ID":     "",
	"PATHAO_CLIENT_SECRET": "",
	"PATHAO_USERNAME":      "",
	"PATHAO_PASSWORD":      "",
	"PATHAO_API_URL":       "https://courier-api.pathao.com/api/v1",
	"PATHAO_STORE_ID":      1,
	"STEADFAST_API_KEY":    "",
	"STEADFAST_SECRET_KEY": "",
	"STEADFAST_API_URL":    "https://portal.packzy.com/api/v1",
	"REDX_API_KEY":         "",
	"REDX_API_URL":         "https://openapi.redx.com.bd/v1.0.0-beta",
}

// Load reads configName.yaml from configPath (if present) and overlays the
// environment. Every key has a default so env-only deployments work.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key needs a default for Unmarshal to see the env value.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Configuration file '%s.yaml' not found; using defaults and environment variables.", configName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// KafkaBrokerList splits KAFKA_BROKERS on commas.
func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

// APIKeyHashList splits API_KEY_HASHES on commas.
func (c *Config) APIKeyHashList() []string {
	return splitList(c.APIKeyHashes)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
