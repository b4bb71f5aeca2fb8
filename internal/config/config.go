package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvProd  = "prod"

	StorageFile     = "file"
	StoragePostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Env             string        `env:"CABSHARE_ENV" env-default:"local"`
	DataDir         string        `env:"CABSHARE_DATA_DIR" env-default:"."`
	Storage         string        `env:"CABSHARE_STORAGE" env-default:"file"`
	RefreshInterval time.Duration `env:"CABSHARE_REFRESH_INTERVAL" env-default:"5s"`
	MetricsTextfile string        `env:"CABSHARE_METRICS_TEXTFILE"`
	SignUpOTP       string        `env:"CABSHARE_SIGNUP_OTP" env-default:"0000"`

	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME" env-default:"cabshare"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. An empty address disables the
// cross-process flush lock and the status cache.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `env:"REDIS_LOCK_TTL" env-default:"10s"`
	LockWait time.Duration `env:"REDIS_LOCK_WAIT" env-default:"5s"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `env:"NEW_RELIC_APP_NAME" env-default:"cabshare"`
	LicenseKey string `env:"NEW_RELIC_LICENSE_KEY"`
	Enabled    bool   `env:"NEW_RELIC_ENABLED" env-default:"false"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	const op = "config.Load"

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch cfg.Storage {
	case StorageFile, StoragePostgres:
	default:
		return nil, fmt.Errorf("%s: unknown storage backend %q", op, cfg.Storage)
	}
	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("%s: refresh interval must be positive, got %s", op, cfg.RefreshInterval)
	}

	return &cfg, nil
}
