// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Tolerances and column synonyms have built-in defaults so the pipeline
// works without a config file. Status labels are deliberately NOT
// configurable: they are an interchange contract with the report writer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Tolerances    Tolerances          `yaml:"tolerances"`
	Columns       ColumnsConfig       `yaml:"columns"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Report        ReportConfig        `yaml:"report"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Tolerances holds the numeric thresholds used by the aggregator and the
// comparator. Quantity and tax are exact; price and net amount allow for
// rounding noise.
type Tolerances struct {
	Quantity  float64 `yaml:"quantity"`
	Price     float64 `yaml:"price"`
	NetAmount float64 `yaml:"net_amount"`
	Tax       float64 `yaml:"tax"`
}

// DefaultTolerances returns the standard rule-set thresholds.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Quantity:  0,
		Price:     0.01,
		NetAmount: 0.02,
		Tax:       0,
	}
}

// ColumnsConfig allows extending the built-in column synonym table with
// additional supplier-specific header variants.
type ColumnsConfig struct {
	// ExtraSynonyms maps a raw header (lowercase) to a canonical column.
	ExtraSynonyms map[string]string `yaml:"extra_synonyms"`
}

// StorageConfig holds the run-history database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP server settings.
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ReportConfig holds Excel export settings.
type ReportConfig struct {
	OutputPath       string `yaml:"output_path"`
	DetailSheetName  string `yaml:"detail_sheet_name"`
	SummarySheetName string `yaml:"summary_sheet_name"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${FACTUURCHECK_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.Storage.DatabasePath = getEnv("FACTUURCHECK_DB_PATH", cfg.Storage.DatabasePath)
	cfg.Report.OutputPath = getEnv("FACTUURCHECK_REPORT_PATH", cfg.Report.OutputPath)
	cfg.API.Port = getEnvInt("FACTUURCHECK_PORT", cfg.API.Port)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables.
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from the specified path, falls back to
// environment variables.
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func defaults() *Config {
	return &Config{
		Tolerances: DefaultTolerances(),
		Storage: StorageConfig{
			DatabasePath: "factuurcheck.db",
		},
		API: APIConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Report: ReportConfig{
			OutputPath:       "vergelijkingsresultaat.xlsx",
			DetailSheetName:  "Vergelijking",
			SummarySheetName: "Samenvatting",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		},
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
