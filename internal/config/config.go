package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string `env:"APP_NAME" envDefault:"users-service"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTP        HTTPConfig
	Users       UsersConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Context     ContextConfig
	Monitor     MonitorConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port         string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	MaxConn      int           `env:"SERVER_MAX_CONN" envDefault:"0"`
}

// UsersConfig holds the business rules of the user service.
type UsersConfig struct {
	AgeLimit int `env:"USER_AGE_LIMIT" envDefault:"18"`
}

type StoreConfig struct {
	Driver   string `env:"STORE_DRIVER" envDefault:"memory"`
	BoltPath string `env:"BOLTDB_PATH" envDefault:"./data/users.db"`
}

type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	Name            string        `env:"DB_NAME" envDefault:"users_db"`
	User            string        `env:"DB_USER" envDefault:"users"`
	Password        string        `env:"DB_PASSWORD"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxConnLifetime time.Duration `env:"DB_CONN_LIFETIME" envDefault:"1h"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
}

// RedisConfig configures the optional user cache; an empty URL disables it.
type RedisConfig struct {
	URL      string        `env:"REDIS_URL"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"5m"`
}

type ContextConfig struct {
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type MonitorConfig struct {
	Interval time.Duration `env:"MONITOR_INTERVAL" envDefault:"10s"`
}

type LoggerConfig struct {
	Level    string `env:"LOG_LEVEL" envDefault:"info"`
	Encoding string `env:"LOG_ENCODING" envDefault:"json"`
}

type MigrationsConfig struct {
	Enabled bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	Path    string `env:"MIGRATIONS_PATH" envDefault:"./assets/migrations"`
}

// Load reads configuration from environment variables (optionally .env),
// applies defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	return parse(env.Options{})
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.DSN()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Users.AgeLimit < 0 {
		errs = append(errs, fmt.Errorf("USER_AGE_LIMIT must not be negative, got %d", c.Users.AgeLimit))
	}
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverBolt:
		if c.Store.BoltPath == "" {
			errs = append(errs, errors.New("BOLTDB_PATH is required for the bolt store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Redis.CacheTTL < 0 {
		errs = append(errs, errors.New("REDIS_CACHE_TTL must not be negative"))
	}
	return errors.Join(errs...)
}

// DSN builds a postgres connection string from the discrete DB_* settings.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

// CacheEnabled reports whether the Redis user cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.URL != ""
}
