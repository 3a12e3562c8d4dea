package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Env         string `env:"ENV" env-default:"local"`
	LogLevel    string `env:"LOG_LEVEL"`
	SeedOnStart bool   `env:"SEED_ON_START" env-default:"false"`

	HTTP      HTTPConfig
	Store     StoreConfig
	Live      LiveConfig
	RateLimit RateLimitConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST"`
	Port            string        `env:"PORT" env-default:"4000"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:3001" env-separator:","`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" env-default:"file"`
	DataDir       string `env:"DATA_DIR" env-default:"./data"`
	SQLitePath    string `env:"SQLITE_PATH" env-default:"./data/taskquest.db"`
	RedisAddr     string `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" env-default:"taskquest"`
	PostgresURL   string `env:"POSTGRES_URL"`
}

type LiveConfig struct {
	TicketSecret string        `env:"LIVE_TICKET_SECRET" env-default:"dev-live-ticket-secret"`
	TicketTTL    time.Duration `env:"LIVE_TICKET_TTL" env-default:"1m"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" env-default:"20"`
	Burst int     `env:"RATE_LIMIT_BURST" env-default:"40"`
}

// LoadConfig loads variables from filename when it exists and then reads
// the environment into a Config.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", filename, err)
	}

	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}

	switch c.Store.Driver {
	case DriverFile, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return errors.New("POSTGRES_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	if c.Env == EnvProd && c.Live.TicketSecret == "dev-live-ticket-secret" {
		return errors.New("LIVE_TICKET_SECRET must be set in prod")
	}
	return nil
}
