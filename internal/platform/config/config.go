package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string        `env:"POCKETLY_ADDR" envDefault:":8080"`
	Environment        string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	Store     StoreConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMemory   = "memory"
)

// StoreConfig holds the subscriber store connection parameters. Leaving URL or
// Key empty is a valid state: the service then runs in development mode and
// never attempts an insert.
type StoreConfig struct {
	URL             string        `env:"SUBSCRIBER_STORE_URL"`
	Key             string        `env:"SUBSCRIBER_STORE_KEY"`
	Driver          string        `env:"SUBSCRIBER_STORE_DRIVER" envDefault:"postgres"`
	MaxOpenConns    int           `env:"SUBSCRIBER_STORE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"SUBSCRIBER_STORE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"SUBSCRIBER_STORE_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"false"`
}

// Configured reports whether a backing store should be used. The in-memory
// driver needs no credentials.
func (c StoreConfig) Configured() bool {
	if c.Driver == DriverMemory {
		return true
	}
	return c.URL != "" && c.Key != ""
}

// DSN merges the access key into the store URL as the connection password.
func (c StoreConfig) DSN() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse store URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("store URL must include scheme and host")
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.Key)
	return u.String(), nil
}

// RedisConfig configures the optional Redis client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// RateLimitConfig bounds submissions per client IP.
type RateLimitConfig struct {
	Requests        int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	Window          time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	Disabled        bool          `env:"RATE_LIMIT_DISABLED" envDefault:"false"`
	KeySecret       string        `env:"RATE_LIMIT_KEY_SECRET"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment take precedence.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot start a server.
func (s Server) Validate() error {
	switch s.Store.Driver {
	case DriverPostgres, DriverPgx, DriverMemory:
	default:
		return fmt.Errorf("unsupported SUBSCRIBER_STORE_DRIVER %q", s.Store.Driver)
	}
	if s.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if s.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs outside production.
func (s Server) IsDevelopment() bool {
	return s.Environment != "production"
}
