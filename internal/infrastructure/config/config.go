// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	matchingCfg, err := cfg.Matching.Domain()
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/billsync/reconcile-backend/internal/domain/matching"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Matching      MatchingConfig      `yaml:"matching"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// MatchingConfig holds the matching policy thresholds. Monetary values are
// decimal strings so the YAML round-trips exactly; empty fields fall back
// to the built-in defaults.
type MatchingConfig struct {
	AmountTolerancePercent   string `yaml:"amount_tolerance_percent"`
	AmountToleranceAbsolute  string `yaml:"amount_tolerance_absolute"`
	DateToleranceDays        int    `yaml:"date_tolerance_days"`
	HighConfidencePercent    string `yaml:"high_confidence_percent"`
	HighConfidenceAbsolute   string `yaml:"high_confidence_absolute"`
	MediumConfidencePercent  string `yaml:"medium_confidence_percent"`
	MediumConfidenceAbsolute string `yaml:"medium_confidence_absolute"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Domain converts the YAML thresholds into the matching policy, starting
// from the defaults and overriding only the fields that are set.
func (m MatchingConfig) Domain() (matching.Config, error) {
	cfg := matching.DefaultConfig()

	overrides := []struct {
		raw    string
		target *decimal.Decimal
		field  string
	}{
		{m.AmountTolerancePercent, &cfg.AmountTolerancePercent, "amount_tolerance_percent"},
		{m.AmountToleranceAbsolute, &cfg.AmountToleranceAbsolute, "amount_tolerance_absolute"},
		{m.HighConfidencePercent, &cfg.HighConfidencePercent, "high_confidence_percent"},
		{m.HighConfidenceAbsolute, &cfg.HighConfidenceAbsolute, "high_confidence_absolute"},
		{m.MediumConfidencePercent, &cfg.MediumConfidencePercent, "medium_confidence_percent"},
		{m.MediumConfidenceAbsolute, &cfg.MediumConfidenceAbsolute, "medium_confidence_absolute"},
	}
	for _, o := range overrides {
		if strings.TrimSpace(o.raw) == "" {
			continue
		}
		d, err := decimal.NewFromString(o.raw)
		if err != nil {
			return matching.Config{}, fmt.Errorf("matching.%s: %w", o.field, err)
		}
		*o.target = d
	}

	if m.DateToleranceDays > 0 {
		cfg.DateToleranceDays = m.DateToleranceDays
	}
	return cfg, nil
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${BILLSYNC_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("BILLSYNC_PORT", 8080),
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("BILLSYNC_DB_PATH", "billsync.db"),
		},
		Matching: MatchingConfig{
			DateToleranceDays: getEnvInt("BILLSYNC_DATE_TOLERANCE_DAYS", 0),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
