// Package config loads the server configuration from YAML and the environment.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Persistence drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Auth        AuthConfig        `yaml:"auth"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
}

// PersistenceConfig selects and configures the snapshot sink.
type PersistenceConfig struct {
	Driver      string         `yaml:"driver"`
	Interval    time.Duration  `yaml:"-"`
	IntervalRaw string         `yaml:"interval"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
	Postgres    DatabaseConfig `yaml:"postgres"`
}

// SQLiteConfig holds the SQLite sink settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Log:    LogConfig{Level: "info"},
		Auth: AuthConfig{
			JWTSecret:   "change-me",
			TokenTTLRaw: "24h",
		},
		Persistence: PersistenceConfig{
			Driver:      DriverSQLite,
			IntervalRaw: "5s",
			SQLite:      SQLiteConfig{Path: "./data/fairshare.db"},
			Postgres: DatabaseConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "fairshare",
				Name:    "fairshare",
				SSLMode: "disable",
			},
		},
	}
}

// Load reads the configuration at path on top of the defaults, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("FAIRSHARE_LISTEN_ADDR"); ok && v != "" {
		c.Server.ListenAddr = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("FAIRSHARE_PERSIST_DRIVER"); ok && v != "" {
		c.Persistence.Driver = v
	}
	if v, ok := lookup("FAIRSHARE_SQLITE_PATH"); ok && v != "" {
		c.Persistence.SQLite.Path = v
	}
	if v, ok := lookup("FAIRSHARE_JWT_SECRET"); ok && v != "" {
		c.Auth.JWTSecret = v
	}
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret must be set")
	}
	ttl, err := parseDurationAllowEmpty(c.Auth.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	c.Auth.TokenTTL = ttl

	return c.Persistence.validateAndNormalize()
}

func (p *PersistenceConfig) validateAndNormalize() error {
	if p.Driver == "" {
		p.Driver = DriverNone
	}

	interval, err := parseDurationAllowEmpty(p.IntervalRaw)
	if err != nil {
		return fmt.Errorf("config: persistence.interval: %w", err)
	}
	if interval < 0 {
		return fmt.Errorf("config: persistence.interval must be positive")
	}
	if interval == 0 {
		interval = 5 * time.Second
	}
	p.Interval = interval

	switch p.Driver {
	case DriverNone:
		return nil
	case DriverSQLite:
		if p.SQLite.Path == "" {
			return fmt.Errorf("config: persistence.sqlite.path must be set")
		}
		return nil
	case DriverPostgres:
		return p.Postgres.validateAndNormalize()
	default:
		return fmt.Errorf("config: persistence.driver %q must be one of none, sqlite, postgres", p.Driver)
	}
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: persistence.postgres.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: persistence.postgres.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: persistence.postgres.user must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: persistence.postgres.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: persistence.postgres.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: persistence.postgres.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// DSN returns the pgx connection string with credentials escaped.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
