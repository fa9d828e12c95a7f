// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Matching tolerances are an explicit struct handed to the engine so tests and
// per-tenant deployments can tune them without touching matcher code.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Matching MatchingConfig `yaml:"matching"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	AllowOrigins string `yaml:"allow_origins"`
}

// DatabaseConfig holds the postgres connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// MatchingConfig holds every tolerance, threshold and cap used by the
// reconciliation engine.
type MatchingConfig struct {
	// Candidate filtering.
	MaxDateVarianceDays int     `yaml:"max_date_variance_days"`
	MaxBundleCandidates int     `yaml:"max_bundle_candidates"`
	FuzzyTolerance      float64 `yaml:"fuzzy_tolerance"`

	// Confidence tiers. Manual review is a sentinel below every accepting
	// threshold.
	ConfidenceHigh         float64 `yaml:"confidence_high"`
	ConfidenceMedium       float64 `yaml:"confidence_medium"`
	ConfidenceLow          float64 `yaml:"confidence_low"`
	ConfidenceManualReview float64 `yaml:"confidence_manual_review"`

	// Auto-match gate: accepted matches below this confidence still go to a
	// reviewer.
	AutoMatchThreshold float64 `yaml:"auto_match_threshold"`

	// Fuzzy matches above this variance percentage are flagged for review
	// even when accepted.
	ReviewVariancePct float64 `yaml:"review_variance_pct"`

	// Fee model for bundles without a disclosed fee (typical card network:
	// 2.9% + $0.30).
	EstimatedFeeRate      float64 `yaml:"estimated_fee_rate"`
	EstimatedFeeBaseCents int64   `yaml:"estimated_fee_base_cents"`

	// Bands around the fee expectation, in cents.
	FeeSlackCents     int64 `yaml:"fee_slack_cents"`
	FeeWideSlackCents int64 `yaml:"fee_wide_slack_cents"`
}

// DefaultMatchingConfig returns the tolerances used when nothing overrides
// them. Tests build on these so expectations stay deterministic.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		MaxDateVarianceDays:    30,
		MaxBundleCandidates:    20,
		FuzzyTolerance:         0.03,
		ConfidenceHigh:         1.0,
		ConfidenceMedium:       0.75,
		ConfidenceLow:          0.5,
		ConfidenceManualReview: 0.0,
		AutoMatchThreshold:     0.9,
		ReviewVariancePct:      0.05,
		EstimatedFeeRate:       0.029,
		EstimatedFeeBaseCents:  30,
		FeeSlackCents:          50,
		FeeWideSlackCents:      200,
	}
}

// Load reads and parses the config file, expanding ${ENV_VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrEnv loads config.yaml when present, otherwise falls back to
// environment variables.
func LoadOrEnv() *Config {
	if _, err := os.Stat("config.yaml"); err == nil {
		if cfg, err := Load("config.yaml"); err == nil {
			return cfg
		}
	}
	return LoadFromEnv()
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.AllowOrigins = getEnv("ALLOW_ORIGINS", cfg.Server.AllowOrigins)
	cfg.Database.DSN = getEnv("DATABASE_DSN", cfg.Database.DSN)
	cfg.Matching.MaxDateVarianceDays = getEnvInt("MAX_DATE_VARIANCE_DAYS", cfg.Matching.MaxDateVarianceDays)
	cfg.Matching.MaxBundleCandidates = getEnvInt("MAX_BUNDLE_CANDIDATES", cfg.Matching.MaxBundleCandidates)
	cfg.Matching.FuzzyTolerance = getEnvFloat("FUZZY_TOLERANCE", cfg.Matching.FuzzyTolerance)
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: "http://localhost:3000",
		},
		Database: DatabaseConfig{
			DSN: "host=localhost user=postgres password=postgres dbname=reconciliation port=5432 sslmode=disable",
		},
		Matching: DefaultMatchingConfig(),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
