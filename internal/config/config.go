// Package config loads fulfillment-console settings from the environment,
// an optional .env file and an optional YAML file. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/fulfillment-console/internal/infrastructure/cache"
	"github.com/wms-platform/fulfillment-console/internal/infrastructure/clients"
	"github.com/wms-platform/fulfillment-console/pkg/kafka"
	"github.com/wms-platform/fulfillment-console/pkg/mongodb"
	"github.com/wms-platform/fulfillment-console/pkg/tracing"
)

// ServiceName is the name reported in logs, metrics and traces
const ServiceName = "fulfillment-console"

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds application configuration
type Config struct {
	ServerAddr   string
	AllowOrigins []string

	WMS     *clients.Config
	Cache   *cache.Config
	Redis   *cache.RedisConfig
	MongoDB *mongodb.Config
	Kafka   *kafka.Config
	Tracing *tracing.Config

	CacheBackend       string
	ActionLogEnabled   bool
	ActionLogRetention time.Duration
	EventsEnabled      bool
}

// fileConfig is the YAML layout of CONSOLE_CONFIG_FILE
type fileConfig struct {
	Server struct {
		Addr         string   `yaml:"addr"`
		AllowOrigins []string `yaml:"allowOrigins"`
	} `yaml:"server"`
	WMS struct {
		BaseURL string `yaml:"baseUrl"`
		Timeout string `yaml:"timeout"`
	} `yaml:"wms"`
	Cache struct {
		Backend string `yaml:"backend"`
		TTL     string `yaml:"ttl"`
	} `yaml:"cache"`
	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`
	MongoDB struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongodb"`
	ActionLog struct {
		Enabled   *bool  `yaml:"enabled"`
		Retention string `yaml:"retention"`
	} `yaml:"actionLog"`
	Kafka struct {
		Enabled *bool    `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
	} `yaml:"kafka"`
	Tracing struct {
		Enabled  *bool  `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"tracing"`
}

// Default returns the built-in configuration
func Default() *Config {
	tracingConfig := tracing.DefaultConfig(ServiceName)

	return &Config{
		ServerAddr:   ":8080",
		AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},

		WMS:     clients.DefaultConfig(),
		Cache:   cache.DefaultConfig(),
		Redis:   cache.DefaultRedisConfig(),
		MongoDB: mongodb.DefaultConfig(),
		Kafka:   kafka.DefaultConfig(),
		Tracing: tracingConfig,

		CacheBackend:       CacheBackendMemory,
		ActionLogEnabled:   true,
		ActionLogRetention: 90 * 24 * time.Hour,
		EventsEnabled:      true,
	}
}

// Load reads .env, then CONSOLE_CONFIG_FILE if set, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := Default()

	if path := os.Getenv("CONSOLE_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := config.applyYAML(raw); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyYAML(raw []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.ServerAddr, f.Server.Addr)
	if len(f.Server.AllowOrigins) > 0 {
		c.AllowOrigins = f.Server.AllowOrigins
	}
	setString(&c.WMS.BaseURL, f.WMS.BaseURL)
	setString(&c.CacheBackend, f.Cache.Backend)
	setString(&c.Redis.Addr, f.Redis.Addr)
	if f.Redis.DB != 0 {
		c.Redis.DB = f.Redis.DB
	}
	setString(&c.MongoDB.URI, f.MongoDB.URI)
	setString(&c.MongoDB.Database, f.MongoDB.Database)
	if len(f.Kafka.Brokers) > 0 {
		c.Kafka.Brokers = f.Kafka.Brokers
	}
	setString(&c.Tracing.OTLPEndpoint, f.Tracing.Endpoint)
	setBool(&c.ActionLogEnabled, f.ActionLog.Enabled)
	setBool(&c.EventsEnabled, f.Kafka.Enabled)
	setBool(&c.Tracing.Enabled, f.Tracing.Enabled)

	for _, d := range []struct {
		target *time.Duration
		value  string
		name   string
	}{
		{&c.WMS.Timeout, f.WMS.Timeout, "wms.timeout"},
		{&c.Cache.TTL, f.Cache.TTL, "cache.ttl"},
		{&c.ActionLogRetention, f.ActionLog.Retention, "actionLog.retention"},
	} {
		if err := setDuration(d.target, d.value, d.name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServerAddr = getEnv("SERVER_ADDR", c.ServerAddr)
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.AllowOrigins = splitList(origins)
	}

	c.WMS.BaseURL = getEnv("WMS_API_URL", c.WMS.BaseURL)
	c.WMS.AuthToken = getEnv("WMS_API_TOKEN", c.WMS.AuthToken)

	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.MongoDB.URI = getEnv("MONGODB_URI", c.MongoDB.URI)
	c.MongoDB.Database = getEnv("MONGODB_DATABASE", c.MongoDB.Database)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}

	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)
	c.Tracing.Environment = getEnv("ENVIRONMENT", c.Tracing.Environment)

	for _, b := range []struct {
		target *bool
		key    string
	}{
		{&c.ActionLogEnabled, "ACTION_LOG_ENABLED"},
		{&c.EventsEnabled, "EVENTS_ENABLED"},
		{&c.Tracing.Enabled, "TRACING_ENABLED"},
	} {
		if err := envBool(b.target, b.key); err != nil {
			return err
		}
	}

	for _, d := range []struct {
		target *time.Duration
		key    string
	}{
		{&c.WMS.Timeout, "WMS_API_TIMEOUT"},
		{&c.Cache.TTL, "CACHE_TTL"},
		{&c.ActionLogRetention, "ACTION_LOG_RETENTION"},
	} {
		if err := setDuration(d.target, os.Getenv(d.key), d.key); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.WMS.BaseURL == "" {
		return fmt.Errorf("WMS API URL is required")
	}
	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.WMS.Timeout <= 0 {
		return fmt.Errorf("WMS API timeout must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(target *bool, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func setBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

func setDuration(target *time.Duration, value, name string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	*target = d
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
