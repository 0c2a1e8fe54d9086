package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"kepayroll/internal/domain/statutory"
)

type Config struct {
	Addr               string
	Environment        string
	LogLevel           string
	DatabaseURL        string
	RunMigrations      bool
	RulesFile          string
	RulesReloadEvery   time.Duration
	ExemptionPolicy    string
	ReliefMode         string
	FrontendDir        string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	RegisterWorkers    int
	MetricsEnabled     bool
	ShutdownTimeout    time.Duration
}

// Load reads the process environment, after merging any .env file found in
// the working directory. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "err", err)
	}
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		RulesFile:          getEnv("RULES_FILE", ""),
		RulesReloadEvery:   getEnvDuration("RULES_RELOAD_INTERVAL", 0),
		ExemptionPolicy:    getEnv("EXEMPTION_POLICY", statutory.PolicyCurrent),
		ReliefMode:         getEnv("RELIEF_MODE", string(statutory.ReliefRecord)),
		FrontendDir:        getEnv("FRONTEND_DIR", "frontend/dist"),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RegisterWorkers:    getEnvInt("REGISTER_WORKERS", 8),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if _, err := statutory.ExemptionPolicyByName(c.ExemptionPolicy); err != nil {
		return fmt.Errorf("EXEMPTION_POLICY must be one of %s", strings.Join(statutory.ExemptionPolicyNames(), ", "))
	}
	if _, err := statutory.ParseReliefMode(c.ReliefMode); err != nil {
		return fmt.Errorf("RELIEF_MODE must be record or apply")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RegisterWorkers <= 0 {
		return fmt.Errorf("REGISTER_WORKERS must be positive")
	}
	if c.RulesReloadEvery < 0 {
		return fmt.Errorf("RULES_RELOAD_INTERVAL must not be negative")
	}
	if c.RulesReloadEvery > 0 && c.RulesFile == "" && c.DatabaseURL == "" {
		return fmt.Errorf("RULES_RELOAD_INTERVAL needs RULES_FILE or DATABASE_URL")
	}
	return nil
}
