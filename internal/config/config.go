// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port of the API server (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the API, used for CORS.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// RateLimitPerMinute caps API requests per client IP (default: 300).
	RateLimitPerMinute int

	// TrustedProxies lists CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings. Redis carries the realtime
	// change feed between the API server and sync clients.
	Redis RedisConfig

	// Auth holds API key settings.
	Auth AuthConfig

	// Client holds settings for the sync client (cmd/sync).
	Client ClientConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so container
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "qollect").
	User string

	// Password is the MariaDB password (default: "qollect").
	Password string

	// Name is the database name (default: "qollect").
	Name string

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// Multi-statement migrations create several tables per file.
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string

	// ChannelPrefix namespaces the realtime pub/sub channels.
	ChannelPrefix string
}

// AuthConfig holds API key settings.
type AuthConfig struct {
	// BootstrapAdminKey, when set, is stored (hashed) as an admin key on
	// startup if no key with the same prefix exists yet.
	BootstrapAdminKey string
}

// ClientConfig holds the settings the sync client uses to reach the API
// and the realtime feed.
type ClientConfig struct {
	// APIURL is the base URL of the Qollect API (e.g., "http://localhost:8080/api/v1").
	APIURL string

	// APIKey is sent as a Bearer token on every request.
	APIKey string

	// RequestTimeout bounds each HTTP request made by the gateway.
	RequestTimeout time.Duration

	// FilterDebounce is how long the test-data filter waits for typing to
	// settle before it queries the API.
	FilterDebounce time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 300),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES", []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fd00::/8"}),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "qollect"),
			Password:        getEnv("DB_PASSWORD", "qollect"),
			Name:            getEnv("DB_NAME", "qollect"),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ChannelPrefix: getEnv("REALTIME_CHANNEL_PREFIX", "qollect:changes"),
		},

		Auth: AuthConfig{
			BootstrapAdminKey: getEnv("BOOTSTRAP_ADMIN_KEY", ""),
		},

		Client: ClientConfig{
			APIURL:         getEnv("QOLLECT_API_URL", "http://localhost:8080/api/v1"),
			APIKey:         getEnv("QOLLECT_API_KEY", ""),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
			FilterDebounce: getEnvDuration("FILTER_DEBOUNCE", 300*time.Millisecond),
		},
	}

	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if cfg.Client.FilterDebounce < 0 {
		return nil, fmt.Errorf("FILTER_DEBOUNCE must not be negative")
	}

	// The bootstrap key is stored with bcrypt, which ignores input past 72
	// bytes, and looked up by its first 8 characters.
	if k := cfg.Auth.BootstrapAdminKey; k != "" && (len(k) < 16 || len(k) > 72) {
		return nil, fmt.Errorf("BOOTSTRAP_ADMIN_KEY must be between 16 and 72 characters")
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// SlogLevel maps LogLevel to a slog level. Unknown values fall back to
// debug in development and info otherwise.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if c.IsDevelopment() {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "300ms") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var or returns the default. Empty
// items are dropped.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
