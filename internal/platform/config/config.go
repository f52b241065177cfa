// Package config loads server configuration from an optional YAML file with
// environment variable overrides, validating the result before the server
// starts. Defaults are safe for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the vocalmind server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// RateLimitConfig selects the rate-limit window store backend.
// Quotas themselves are fixed at compile time; see internal/ratelimit/models.
type RateLimitConfig struct {
	Disabled bool   `yaml:"disabled"`
	Backend  string `yaml:"backend"` // memory (default) or redis
}

// PostgresConfig configures the pgx connection pool. An empty URL selects the
// in-memory stores.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig configures the shared Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the audit event publisher. Empty brokers keep audit
// events on the structured log only.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the baseline configuration before file and env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MetricsAddr:     ":9090",
			JWTSigningKey:   "dev-secret-key-change-in-production",
			SessionTTL:      24 * time.Hour,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		RateLimit: RateLimitConfig{
			Backend: "memory",
		},
		Postgres: PostgresConfig{MaxConns: 10},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{Topic: "vocalmind.audit"},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "VOCALMIND_ADDR")
	setString(&cfg.Server.MetricsAddr, "VOCALMIND_METRICS_ADDR")
	setString(&cfg.Server.JWTSigningKey, "VOCALMIND_JWT_SIGNING_KEY")
	setString(&cfg.Log.Level, "VOCALMIND_LOG_LEVEL")
	setString(&cfg.Log.Format, "VOCALMIND_LOG_FORMAT")
	setString(&cfg.RateLimit.Backend, "VOCALMIND_RATELIMIT_BACKEND")
	setBool(&cfg.RateLimit.Disabled, "VOCALMIND_RATELIMIT_DISABLED")
	setString(&cfg.Postgres.URL, "VOCALMIND_POSTGRES_URL")
	setString(&cfg.Redis.URL, "VOCALMIND_REDIS_URL")
	if v := os.Getenv("VOCALMIND_KAFKA_BROKERS"); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
	setString(&cfg.Kafka.Topic, "VOCALMIND_KAFKA_TOPIC")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text; got %q", c.Log.Format)
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("ratelimit.backend is redis but redis.url is empty")
		}
	default:
		return fmt.Errorf("ratelimit.backend must be memory or redis; got %q", c.RateLimit.Backend)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("server.session_ttl must be positive")
	}
	return nil
}
