// Package config handles configuration loading for the plot-data server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// EngineConfig bounds generation and sampling work.
type EngineConfig struct {
	MinDatasetSize    int     `yaml:"min_dataset_size"`
	MaxDatasetSize    int     `yaml:"max_dataset_size"`
	DefaultSize       int     `yaml:"default_dataset_size"`
	DefaultMaxPoints  int     `yaml:"default_max_points"`
	MaxPointsLimit    int     `yaml:"max_points_limit"`
	MaxAdaptivePoints int     `yaml:"max_adaptive_points"`
	ZoomCapMultiplier float64 `yaml:"zoom_cap_multiplier"`
	ExtremeFraction   float64 `yaml:"extreme_fraction"`
	MaxGroups         int     `yaml:"max_groups"`
	MaxFeatures       int     `yaml:"max_features"`
	MaxCellCost       int64   `yaml:"max_cell_cost"`
	WarmSizes         []int   `yaml:"warm_sizes"`
	WarmConcurrency   int     `yaml:"warm_concurrency"`
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	MaxDatasets        int `yaml:"max_datasets"`
	ResponseSizeMB     int `yaml:"response_size_mb"`
	ResponseTTLMinutes int `yaml:"response_ttl_minutes"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Engine: EngineConfig{
			MinDatasetSize:    100,
			MaxDatasetSize:    10_000_000,
			DefaultSize:       10_000,
			DefaultMaxPoints:  2000,
			MaxPointsLimit:    100_000,
			MaxAdaptivePoints: 50_000,
			ZoomCapMultiplier: 8.0,
			ExtremeFraction:   0.10,
			MaxGroups:         50,
			MaxFeatures:       500,
			MaxCellCost:       50_000_000,
			WarmConcurrency:   2,
		},
		Cache: CacheConfig{
			MaxDatasets:        20,
			ResponseSizeMB:     64,
			ResponseTTLMinutes: 5,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Engine.MinDatasetSize == 0 {
		cfg.Engine.MinDatasetSize = defaults.Engine.MinDatasetSize
	}
	if cfg.Engine.MaxDatasetSize == 0 {
		cfg.Engine.MaxDatasetSize = defaults.Engine.MaxDatasetSize
	}
	if cfg.Engine.DefaultSize == 0 {
		cfg.Engine.DefaultSize = defaults.Engine.DefaultSize
	}
	if cfg.Engine.DefaultMaxPoints == 0 {
		cfg.Engine.DefaultMaxPoints = defaults.Engine.DefaultMaxPoints
	}
	if cfg.Engine.MaxPointsLimit == 0 {
		cfg.Engine.MaxPointsLimit = defaults.Engine.MaxPointsLimit
	}
	if cfg.Engine.MaxAdaptivePoints == 0 {
		cfg.Engine.MaxAdaptivePoints = defaults.Engine.MaxAdaptivePoints
	}
	if cfg.Engine.ZoomCapMultiplier == 0 {
		cfg.Engine.ZoomCapMultiplier = defaults.Engine.ZoomCapMultiplier
	}
	if cfg.Engine.ExtremeFraction == 0 {
		cfg.Engine.ExtremeFraction = defaults.Engine.ExtremeFraction
	}
	if cfg.Engine.MaxGroups == 0 {
		cfg.Engine.MaxGroups = defaults.Engine.MaxGroups
	}
	if cfg.Engine.MaxFeatures == 0 {
		cfg.Engine.MaxFeatures = defaults.Engine.MaxFeatures
	}
	if cfg.Engine.MaxCellCost == 0 {
		cfg.Engine.MaxCellCost = defaults.Engine.MaxCellCost
	}
	if cfg.Engine.WarmConcurrency == 0 {
		cfg.Engine.WarmConcurrency = defaults.Engine.WarmConcurrency
	}
	if cfg.Cache.MaxDatasets == 0 {
		cfg.Cache.MaxDatasets = defaults.Cache.MaxDatasets
	}
	if cfg.Cache.ResponseSizeMB == 0 {
		cfg.Cache.ResponseSizeMB = defaults.Cache.ResponseSizeMB
	}
	if cfg.Cache.ResponseTTLMinutes == 0 {
		cfg.Cache.ResponseTTLMinutes = defaults.Cache.ResponseTTLMinutes
	}
}
