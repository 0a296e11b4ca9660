// Package config loads application configuration from file, environment,
// and defaults via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Geocoding configuration
	Geo GeoConfig `mapstructure:"geo"`

	// Merge resolver configuration
	Merge MergeConfig `mapstructure:"merge"`

	// Transform pipeline configuration
	Transforms TransformConfig `mapstructure:"transforms"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Snapshot store configuration
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GeoConfig holds geocoding and static map configuration.
type GeoConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	UserAgent       string `mapstructure:"user_agent"`
	CacheSize       int    `mapstructure:"cache_size"`
	StaticMapAPIKey string `mapstructure:"static_map_api_key"`
}

// MergeConfig holds the duplicate resolver thresholds.
type MergeConfig struct {
	EventThreshold   float64 `mapstructure:"event_threshold"`
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	Boost            float64 `mapstructure:"boost"`
}

// TransformConfig holds the transform pipeline configuration.
type TransformConfig struct {
	Concurrency    int `mapstructure:"concurrency"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// SnapshotConfig holds the investigation snapshot store configuration.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Geocoding defaults
	viper.SetDefault("geo.base_url", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geo.user_agent", "pano/1.0")
	viper.SetDefault("geo.cache_size", 512)

	// Merge defaults
	viper.SetDefault("merge.event_threshold", 0.5)
	viper.SetDefault("merge.default_threshold", 0.7)
	viper.SetDefault("merge.boost", 1.5)

	// Transform defaults
	viper.SetDefault("transforms.concurrency", 10)
	viper.SetDefault("transforms.timeout_seconds", 25)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", filepath.Join(home, ".pano", "telemetry"))
		viper.SetDefault("snapshot.dir", filepath.Join(home, ".pano", "snapshots"))
	}
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if url := os.Getenv("PANO_GEO_BASE_URL"); url != "" {
		config.Geo.BaseURL = url
	}
	if key := os.Getenv("GEOAPIFY_API_KEY"); key != "" {
		config.Geo.StaticMapAPIKey = key
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
	if dir := os.Getenv("PANO_SNAPSHOT_DIR"); dir != "" {
		config.Snapshot.Dir = dir
	}
}
