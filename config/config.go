// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/platforma-dev/yatb/log"
)

const (
	// DriverPostgres selects the PostgreSQL store.
	DriverPostgres = "postgres"
	// DriverSQLite selects the embedded SQLite store.
	DriverSQLite = "sqlite"
)

// Config holds everything the bot reads from its environment.
type Config struct {
	Token  string `env:"TOKEN"`
	Prefix string `env:"PREFIX" envDefault:"!"`

	// Automigrate is compared verbatim against "true"; see AutomigrateEnabled.
	Automigrate     string `env:"AUTOMIGRATE"      envDefault:"false"`
	MigrationsDir   string `env:"MIGRATIONS_DIR"   envDefault:"data/migrations"`
	MigrationsTable string `env:"MIGRATIONS_TABLE" envDefault:"migrations"`

	Database Database

	LogFormat string     `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel  slog.Level `env:"LOG_LEVEL"  envDefault:"INFO"`

	HealthAddr        string `env:"HEALTH_ADDR"`
	PoolStatsSchedule string `env:"POOL_STATS_SCHEDULE" envDefault:"@every 5m"`
}

// Database holds store connection parameters and pool sizing.
type Database struct {
	Driver   string `env:"DB_DRIVER"   envDefault:"postgres"`
	Host     string `env:"DB_HOST"     envDefault:"127.0.0.1"`
	Port     int    `env:"DB_PORT"     envDefault:"5432"`
	Name     string `env:"DB_DATABASE"`
	User     string `env:"DB_USER"     envDefault:"root"`
	Password string `env:"DB_PASS"     envDefault:"password"`
	SSLMode  string `env:"DB_SSLMODE"  envDefault:"disable"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("invalid LOG_FORMAT: %w", err)
	}

	return nil
}

// AutomigrateEnabled reports whether AUTOMIGRATE is exactly "true".
// Any other value, including "1" or "TRUE", leaves automigration off.
func (c *Config) AutomigrateEnabled() bool {
	return c.Automigrate == "true"
}

// DatabaseName returns the configured database, falling back to the user name.
func (d Database) DatabaseName() string {
	if d.Name == "" {
		return d.User
	}
	return d.Name
}

// DSN builds the driver connection string.
func (d Database) DSN() string {
	if d.Driver == DriverSQLite {
		return d.DatabaseName()
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.DatabaseName(),
	}

	q := url.Values{}
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}
