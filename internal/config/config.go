package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration loaded from env vars (and an optional .env file).
type Config struct {
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Database
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DBHost          string `mapstructure:"DB_HOST"`
	DBUser          string `mapstructure:"DB_USER"`
	DBPassword      string `mapstructure:"DB_PASSWORD"`
	DBName          string `mapstructure:"DB_NAME"`
	DBPort          string `mapstructure:"DB_PORT"`
	DBMaxOpenConns  int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns  int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBSlowThreshold int    `mapstructure:"DB_SLOW_THRESHOLD_MS"`
	AutoMigrate     bool   `mapstructure:"AUTO_MIGRATE"`

	// Redis. Empty means locks stay in-process (single instance only).
	RedisURL       string `mapstructure:"REDIS_URL"`
	LockTTLSeconds int    `mapstructure:"LOCK_TTL_SECONDS"`
	LockRetryCount int    `mapstructure:"LOCK_RETRY_COUNT"`
}

// Load reads configuration from environment variables and .env if present.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with the .env file looked up in dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	v.SetDefault("PORT", 3000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "warehouse")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_SLOW_THRESHOLD_MS", 1000)
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOCK_TTL_SECONDS", 10)
	v.SetDefault("LOCK_RETRY_COUNT", 50)

	// .env is optional, env vars win either way
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise builds a key/value DSN from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) SlowThreshold() time.Duration {
	return time.Duration(c.DBSlowThreshold) * time.Millisecond
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}
