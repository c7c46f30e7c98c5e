package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	HTTP       HTTPConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	DirectCode DirectCodeConfig
	Audit      AuditConfig
	Env        string
}

// HTTPConfig captures HTTP server level configuration.
type HTTPConfig struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// PostgresConfig holds the identity store connection settings. An empty URL
// selects the in-memory user store.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection settings for the redis-backed engine stores.
// An empty URL selects the in-memory engine.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DirectCodeConfig identifies the single client the programmatic code-issuance
// path mints codes for. The first redirect URI is used on the minted code.
type DirectCodeConfig struct {
	ClientID     string
	RedirectURIs []string
}

// AuditConfig tunes the async audit pipeline.
type AuditConfig struct {
	Buffer int
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            getEnv("PARLEY_ADDR", ":5000"),
			RequestTimeout:  getDuration("PARLEY_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("PARLEY_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("PARLEY_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("PARLEY_REDIS_URL"),
			PoolSize:     getInt("PARLEY_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("PARLEY_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("PARLEY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("PARLEY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("PARLEY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		DirectCode: DirectCodeConfig{
			ClientID:     getEnv("PARLEY_DIRECT_CLIENT_ID", "dev-client"),
			RedirectURIs: splitList(getEnv("PARLEY_DIRECT_REDIRECT_URIS", "http://localhost:8080/cb")),
		},
		Audit: AuditConfig{
			Buffer: getInt("PARLEY_AUDIT_BUFFER", 128),
		},
		Env: getEnv("PARLEY_ENV", "development"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
