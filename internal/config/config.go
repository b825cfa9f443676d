// Package config provides application configuration management.
// It loads configuration from environment variables with sensible defaults,
// after reading an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Balance BalanceConfig

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int
}

// StorageConfig holds SQLite configuration.
type StorageConfig struct {
	DBPath string
}

// RedisConfig holds the user profile cache configuration.
// An empty URL disables the cache.
type RedisConfig struct {
	URL     string
	UserTTL time.Duration
}

// JWTConfig holds token validation configuration.
type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// BalanceConfig tunes the balance engine.
type BalanceConfig struct {
	// FetchConcurrency bounds concurrent per-group fetches.
	FetchConcurrency int

	// Currency is reported on summaries when a user has no groups.
	Currency string
}

// Load reads a .env file if one is present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("PORT", 8080),
		},
		Storage: StorageConfig{
			DBPath: getEnv("DB_PATH", "./data/ledger.db"),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			UserTTL: getEnvAsDuration("USER_CACHE_TTL", 10*time.Minute),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TokenTTL: getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Balance: BalanceConfig{
			FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 8),
			Currency:         getEnv("CURRENCY", "TRY"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Balance.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1, got %d", c.Balance.FetchConcurrency)
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
