package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies defaults with an empty environment
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "data/linktrack.db", cfg.Database.Path)
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "local", cfg.RateLimit.Backend)
	assert.Equal(t, 1024, cfg.Dispatch.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.Dispatch.RecordTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Geo.Timeout)
	assert.Empty(t, cfg.Geo.DBPath)
	assert.Empty(t, cfg.TrustedProxies)
}

// TestLoad_EnvOverrides verifies environment variables take precedence
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BASE_URL", "https://lnk.example.com")
	t.Setenv("DATABASE_PATH", "/var/lib/linktrack/db.sqlite")
	t.Setenv("RATE_LIMIT", "30")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("GEOIP_DB_PATH", "/opt/geoip/GeoLite2-City.mmdb")
	t.Setenv("GEOIP_TIMEOUT", "250ms")
	t.Setenv("DISPATCH_QUEUE_SIZE", "64")
	t.Setenv("RECORD_TIMEOUT", "2s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "https://lnk.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "/var/lib/linktrack/db.sqlite", cfg.Database.Path)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, "redis:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, "/opt/geoip/GeoLite2-City.mmdb", cfg.Geo.DBPath)
	assert.Equal(t, 250*time.Millisecond, cfg.Geo.Timeout)
	assert.Equal(t, 64, cfg.Dispatch.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.RecordTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

// TestLoad_InvalidInt verifies malformed numeric values are rejected
func TestLoad_InvalidInt(t *testing.T) {
	t.Setenv("RATE_LIMIT", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT")
}

// TestLoad_InvalidDuration verifies malformed durations are rejected
func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("RECORD_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECORD_TIMEOUT")
}

// TestLoad_ValidationFailures verifies out-of-range values are rejected
func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "zero rate limit", key: "RATE_LIMIT", value: "0", wantErr: "rate limit must be positive"},
		{name: "unknown backend", key: "RATE_LIMIT_BACKEND", value: "memcached", wantErr: "rate limit backend"},
		{name: "zero queue size", key: "DISPATCH_QUEUE_SIZE", value: "0", wantErr: "queue size must be positive"},
		{name: "negative geo timeout", key: "GEOIP_TIMEOUT", value: "-1s", wantErr: "geo timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
