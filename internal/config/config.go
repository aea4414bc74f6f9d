package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Geo       GeoConfig
	Dispatch  DispatchConfig
	// TrustedProxies lists CIDRs whose X-Forwarded-For headers are honored.
	TrustedProxies []string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    string
	BaseURL string
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string
}

// RateLimitConfig holds rate limiter settings.
type RateLimitConfig struct {
	RequestsPerMinute int
	// Backend selects the counter store: "local" or "redis".
	Backend   string
	RedisAddr string
}

// GeoConfig holds geo-IP lookup settings.
type GeoConfig struct {
	// DBPath points at a GeoIP2/GeoLite2 database file. Empty disables
	// geo enrichment; requests are recorded with empty geo fields.
	DBPath  string
	Timeout time.Duration
}

// DispatchConfig holds background recording settings.
type DispatchConfig struct {
	// QueueSize bounds the in-flight event buffer per topic.
	QueueSize int
	// RecordTimeout bounds each background store write.
	RecordTimeout time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			BaseURL: getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "data/linktrack.db"),
		},
		RateLimit: RateLimitConfig{
			Backend:   getEnv("RATE_LIMIT_BACKEND", "local"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Geo: GeoConfig{
			DBPath: getEnv("GEOIP_DB_PATH", ""),
		},
	}

	var err error
	if cfg.RateLimit.RequestsPerMinute, err = getEnvInt("RATE_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.Dispatch.QueueSize, err = getEnvInt("DISPATCH_QUEUE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.Geo.Timeout, err = getEnvDuration("GEOIP_TIMEOUT", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Dispatch.RecordTimeout, err = getEnvDuration("RECORD_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			cfg.TrustedProxies = append(cfg.TrustedProxies, strings.TrimSpace(p))
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values.
func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive, got: %d", c.RateLimit.RequestsPerMinute)
	}
	if c.RateLimit.Backend != "local" && c.RateLimit.Backend != "redis" {
		return fmt.Errorf("rate limit backend must be local or redis, got: %s", c.RateLimit.Backend)
	}
	if c.Dispatch.QueueSize <= 0 {
		return fmt.Errorf("dispatch queue size must be positive, got: %d", c.Dispatch.QueueSize)
	}
	if c.Dispatch.RecordTimeout <= 0 {
		return fmt.Errorf("record timeout must be positive, got: %v", c.Dispatch.RecordTimeout)
	}
	if c.Geo.Timeout <= 0 {
		return fmt.Errorf("geo timeout must be positive, got: %v", c.Geo.Timeout)
	}
	return nil
}

// getEnv retrieves an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return d, nil
}
