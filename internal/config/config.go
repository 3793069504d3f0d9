// Package config loads and validates all environment-sourced settings.
// A Config is built once at startup and passed into component constructors;
// nothing else in the codebase reads the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting for the service.
type Config struct {
	// HTTP
	Addr string

	// Database
	Driver     string // "clickhouse" or "postgres" (local development mirror)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// LLM
	LLMProvider     string // "openai", "azure", or "anthropic"
	LLMAPIKey       string
	LLMModel        string
	LLMBaseURL      string
	AzureDeployment string
	AzureAPIVersion string
	LLMTimeout      time.Duration

	// Query policy
	QueryTimeout    time.Duration
	DefaultRowLimit int
	MaxRowLimit     int

	// Presentation
	DisplayTimezone string

	// Logging
	LogLevel  string
	LogFormat string
}

// MissingError reports every required environment variable that was absent,
// so startup fails with one complete list instead of one name at a time.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Names, ", "))
}

// Load reads configuration from the environment (after the caller has given
// godotenv a chance to populate it) and validates required values.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:            env("ADDR", ":8080"),
		Driver:          env("DB_DRIVER", "clickhouse"),
		DBHost:          os.Getenv("CLICKHOUSE_HOST"),
		DBPort:          envInt("CLICKHOUSE_PORT", 9000),
		DBUser:          env("CLICKHOUSE_USERNAME", "default"),
		DBPassword:      os.Getenv("CLICKHOUSE_PASSWORD"),
		DBName:          env("CLICKHOUSE_DATABASE", "ovitag_dw"),
		LLMProvider:     strings.ToLower(env("LLM_PROVIDER", "openai")),
		LLMAPIKey:       os.Getenv("LLM_API_KEY"),
		LLMModel:        os.Getenv("LLM_MODEL"),
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		AzureDeployment: env("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureAPIVersion: env("AZURE_OPENAI_API_VERSION", "2025-01-01-preview"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 60*time.Second),
		QueryTimeout:    envDuration("QUERY_TIMEOUT", 30*time.Second),
		DefaultRowLimit: envInt("DEFAULT_ROW_LIMIT", 100),
		MaxRowLimit:     envInt("MAX_ROW_LIMIT", 500),
		DisplayTimezone: env("DISPLAY_TIMEZONE", "Asia/Kolkata"),
		LogLevel:        env("LOG_LEVEL", "info"),
		LogFormat:       env("LOG_FORMAT", "json"),
	}

	// Azure uses its own key/endpoint variables; fold them into the generic
	// fields so the rest of the code sees one shape.
	if cfg.LLMAPIKey == "" && os.Getenv("AZURE_OPENAI_API_KEY") != "" {
		cfg.LLMAPIKey = os.Getenv("AZURE_OPENAI_API_KEY")
		cfg.LLMProvider = "azure"
	}
	if cfg.LLMProvider == "azure" && cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}

	var missing []string
	if cfg.DBHost == "" {
		missing = append(missing, "CLICKHOUSE_HOST")
	}
	if cfg.DBPassword == "" {
		missing = append(missing, "CLICKHOUSE_PASSWORD")
	}
	if cfg.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY or AZURE_OPENAI_API_KEY")
	}
	if cfg.LLMProvider == "azure" && cfg.LLMBaseURL == "" {
		missing = append(missing, "AZURE_OPENAI_ENDPOINT")
	}
	if len(missing) > 0 {
		return nil, &MissingError{Names: missing}
	}

	if cfg.MaxRowLimit <= 0 {
		cfg.MaxRowLimit = 500
	}
	if cfg.DefaultRowLimit <= 0 || cfg.DefaultRowLimit > cfg.MaxRowLimit {
		cfg.DefaultRowLimit = 100
	}

	return cfg, nil
}

// DSN builds the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.Driver {
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	default:
		return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Bare integers are treated as seconds, matching the original deployment.
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}
