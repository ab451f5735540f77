package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tradejournal/internal/adapters/logger" // Import the logger package for LogLevel
)

// MinJWTSecretLength is the shortest accepted JWT_SECRET.
const MinJWTSecretLength = 16

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// HTTP server
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// Authentication
	JWTSecret string
	TokenTTL  time.Duration

	// Display
	DisplayCurrency string // ISO 4217 code used when formatting amounts

	// Logging
	LogLevel logger.LogLevel
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// fileConfig is the optional YAML file. Its values replace the built-in
// defaults; environment variables still win.
type fileConfig struct {
	DBPath                 string `yaml:"db_path"`
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	LogLevel               string `yaml:"log_level"`
	JWTSecret              string `yaml:"jwt_secret"`
	TokenTTLHours          int    `yaml:"token_ttl_hours"`
	DisplayCurrency        string `yaml:"display_currency"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// LoadConfig loads configuration from the .env file, the optional YAML file at
// path (or CONFIG_FILE when path is empty) and environment variables.
func LoadConfig(path string) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	file := fileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", orDefault(file.DBPath, "./data/tradejournal.db"))
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// HTTP server
	cfg.Host = getEnv("HOST", orDefault(file.Host, "127.0.0.1"))

	cfg.Port, err = getEnvAsIntRequired("PORT", orDefaultInt(file.Port, "8000"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT: %v", err))
	} else if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	shutdownSeconds, err := getEnvAsIntRequired("SHUTDOWN_TIMEOUT_SECONDS", orDefaultInt(file.ShutdownTimeoutSeconds, "10"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SHUTDOWN_TIMEOUT_SECONDS: %v", err))
	} else if shutdownSeconds <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	cfg.ShutdownTimeout = time.Duration(shutdownSeconds) * time.Second

	// Authentication
	cfg.JWTSecret = getEnv("JWT_SECRET", file.JWTSecret)
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET must be set")
	} else if len(cfg.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}

	ttlHours, err := getEnvAsIntRequired("TOKEN_TTL_HOURS", orDefaultInt(file.TokenTTLHours, "24"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TOKEN_TTL_HOURS: %v", err))
	} else if ttlHours <= 0 {
		errs = append(errs, "TOKEN_TTL_HOURS must be positive")
	}
	cfg.TokenTTL = time.Duration(ttlHours) * time.Hour

	// Display
	cfg.DisplayCurrency = strings.ToUpper(strings.TrimSpace(getEnv("DISPLAY_CURRENCY", orDefault(file.DisplayCurrency, "USD"))))
	if money.GetCurrency(cfg.DisplayCurrency) == nil {
		errs = append(errs, fmt.Sprintf("DISPLAY_CURRENCY %q is not a known currency code", cfg.DisplayCurrency))
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", orDefault(file.LogLevel, "INFO")))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue string) (int, error) {
	valueStr := getEnv(key, defaultValue)
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDefaultInt(value int, fallback string) string {
	if value == 0 {
		return fallback
	}
	return strconv.Itoa(value)
}
