package config

import (
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gomotopia/districtr/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Analysis  AnalysisConfig
	Places    PlacesConfig
	Database  DatabaseConfig
	Profiling ProfilingConfig
	Dev       DevConfig
	LogLevel  string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// AnalysisConfig holds the remote analysis service endpoints
type AnalysisConfig struct {
	ContiguityURL string
	UnassignedURL string
	BBoxURL       string
	// Timeout of zero means requests are never cut off
	Timeout time.Duration
}

// PlacesConfig points at the per-place capability table
type PlacesConfig struct {
	CapabilitiesFile string
}

// DatabaseConfig holds the optional run ledger connection
type DatabaseConfig struct {
	URL string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// DevConfig holds settings for the local analysis stand-in
type DevConfig struct {
	UnitsFile string
	Port      string
}

const (
	DefaultContiguityURL = "https://mggg.pythonanywhere.com/contigv2"
	DefaultUnassignedURL = "https://mggg.pythonanywhere.com/unassigned"
	DefaultBBoxURL       = "https://mggg.pythonanywhere.com/findBBox"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	timeout, err := getEnvDurationOrDefault("ANALYSIS_TIMEOUT", 0)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Analysis: AnalysisConfig{
			ContiguityURL: getEnvOrDefault("CONTIGUITY_URL", DefaultContiguityURL),
			UnassignedURL: getEnvOrDefault("UNASSIGNED_URL", DefaultUnassignedURL),
			BBoxURL:       getEnvOrDefault("BBOX_URL", DefaultBBoxURL),
			Timeout:       timeout,
		},
		Places: PlacesConfig{
			CapabilitiesFile: getEnvOrDefault("CAPABILITIES_FILE", ""),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
		Dev: DevConfig{
			UnitsFile: getEnvOrDefault("DEV_UNITS_FILE", "units.json"),
			Port:      getEnvOrDefault("DEV_PORT", "8090"),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	endpoints := map[string]string{
		"CONTIGUITY_URL": config.Analysis.ContiguityURL,
		"UNASSIGNED_URL": config.Analysis.UnassignedURL,
		"BBOX_URL":       config.Analysis.BBoxURL,
	}
	for key, raw := range endpoints {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.ConfigInvalid(key + " must be an absolute URL")
		}
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Analysis.Timeout < 0 {
		return errors.ConfigInvalid("ANALYSIS_TIMEOUT cannot be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " is not a valid duration")
	}
	return duration, nil
}
