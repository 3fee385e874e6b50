package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	pkgRetry "github.com/promptweaver/prompt-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Database configuration
	DatabaseURL         string               `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int                  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int                  `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration        `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration        `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration        `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	DBConnectRetry      pkgRetry.RetryConfig `envPrefix:"DB_CONNECT_RETRY_"`

	// Secret used to derive the API-key encryption key. Changing it makes
	// previously stored keys undecryptable.
	SecretKey string `env:"SECRET_KEY,notEmpty"`

	// Generation sessions are held in memory and dropped after this TTL.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Mock configuration: serve deterministic AI responses without a key
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

const minSecretKeyLength = 16

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(cfg.SecretKey) < minSecretKeyLength {
		errors = append(errors, fmt.Sprintf("SECRET_KEY must be at least %d characters", minSecretKeyLength))
	}

	if cfg.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("SESSION_TTL must be at least 1m, got %s", cfg.SessionTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
