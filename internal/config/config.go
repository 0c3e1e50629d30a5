// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN for the session store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// UpstreamBaseURL is the base URL of the aggregation upstream (e.g. http://localhost:9000).
	UpstreamBaseURL string `mapstructure:"UPSTREAM_BASE_URL"`
	// UpstreamTimeout is the per-sub-fetch timeout (e.g. "5s").
	UpstreamTimeout string `mapstructure:"UPSTREAM_TIMEOUT"`
	// DashboardFreshTTL is how long a cached dashboard payload counts as fresh (e.g. "60s").
	DashboardFreshTTL string `mapstructure:"DASHBOARD_FRESH_TTL"`

	// BroadcastSendTimeout bounds a single fan-out write to one display connection (e.g. "2s").
	BroadcastSendTimeout string `mapstructure:"BROADCAST_SEND_TIMEOUT"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables exporters.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Audit pipeline (optional). When Kafka brokers are set, the server emits audit events to Kafka.
	// AuditKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	AuditKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// AuditKafkaTopic is the Kafka topic for audit events (default signage-audit).
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the audit worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the audit worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("UPSTREAM_BASE_URL", "")
	v.SetDefault("UPSTREAM_TIMEOUT", "5s")
	v.SetDefault("DASHBOARD_FRESH_TTL", "60s")
	v.SetDefault("BROADCAST_SEND_TIMEOUT", "2s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "signage-audit")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "signage-audit-worker")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// FreshTTL parses DashboardFreshTTL as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) FreshTTL() time.Duration {
	d, err := time.ParseDuration(c.DashboardFreshTTL)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// SubFetchTimeout parses UpstreamTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) SubFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.UpstreamTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// SendTimeout parses BroadcastSendTimeout as a time.Duration. Returns 2s if unset or invalid.
func (c *Config) SendTimeout() time.Duration {
	d, err := time.ParseDuration(c.BroadcastSendTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// AuditKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the audit pipeline is enabled (non-empty list) and to create the producer.
func (c *Config) AuditKafkaBrokersList() []string {
	if c == nil || c.AuditKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.AuditKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
