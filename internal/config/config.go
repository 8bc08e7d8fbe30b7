// Package config loads and validates agent configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Collection      CollectionConfig  `mapstructure:"collection_settings"`
	APIs            APIConfig         `mapstructure:"apis"`
	CensusVariables map[string]string `mapstructure:"census_variables"`
	Quality         QualityConfig     `mapstructure:"quality_checks"`
	DataPaths       DataPathsConfig   `mapstructure:"data_paths"`
	Server          ServerConfig      `mapstructure:"server"`
	Logging         LoggingConfig     `mapstructure:"logging"`
}

// CollectionConfig governs the run loop and pacing.
type CollectionConfig struct {
	MinDelaySeconds          float64 `mapstructure:"min_delay_seconds"`
	MinQualityThreshold      float64 `mapstructure:"min_quality_threshold"`
	TargetCensusTracts       int     `mapstructure:"target_census_tracts"`
	RateLimitCooldownSeconds int     `mapstructure:"rate_limit_cooldown_seconds"`
}

// APIConfig groups external API settings.
type APIConfig struct {
	Census CensusAPIConfig `mapstructure:"census"`
}

// CensusAPIConfig holds credentials and transport settings for the
// Census ACS5 endpoint.
type CensusAPIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout"`
}

// Timeout converts the configured request timeout to a duration.
func (c CensusAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HasAPIKey reports whether a real credential is configured. Placeholder
// values from a freshly generated config file do not count.
func (c CensusAPIConfig) HasAPIKey() bool {
	return c.APIKey != "" && !strings.Contains(c.APIKey, "YOUR_")
}

// QualityConfig drives the record quality checks.
type QualityConfig struct {
	RequiredFields []string             `mapstructure:"required_fields"`
	ValidRanges    map[string][]float64 `mapstructure:"valid_ranges"`
}

// DataPathsConfig names the output directories; all are created on demand.
type DataPathsConfig struct {
	Logs     string `mapstructure:"logs"`
	RawData  string `mapstructure:"raw_data"`
	Metadata string `mapstructure:"metadata"`
	Reports  string `mapstructure:"reports"`
}

// ServerConfig controls the optional in-run metrics listener.
type ServerConfig struct {
	MetricsPort int `mapstructure:"metrics_port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment. An explicit path is
// required to exist; with an empty path the default search locations are
// tried and defaults apply when nothing is found.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOODDESERT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.fooddesert")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("collection_settings.min_delay_seconds", 1.0)
	v.SetDefault("collection_settings.min_quality_threshold", 0.7)
	v.SetDefault("collection_settings.target_census_tracts", 10)
	v.SetDefault("collection_settings.rate_limit_cooldown_seconds", 60)

	v.SetDefault("apis.census.api_key", "")
	v.SetDefault("apis.census.base_url", "https://api.census.gov/data")
	v.SetDefault("apis.census.timeout", 30)

	v.SetDefault("census_variables", map[string]string{
		"median_income":     "B19013_001E",
		"poverty_rate":      "B17001_002E",
		"total_population":  "B01003_001E",
		"white_population":  "B02001_002E",
		"black_population":  "B02001_003E",
		"vehicle_available": "B08201_002E",
		"no_vehicle":        "B08201_001E",
		"snap_benefits":     "B22010_002E",
	})

	v.SetDefault("quality_checks.required_fields", []string{
		"median_income", "poverty_rate", "total_population",
	})
	v.SetDefault("quality_checks.valid_ranges", map[string][]float64{
		"median_income":    {0, 500000},
		"poverty_rate":     {0, 100},
		"total_population": {0, 50000},
	})

	v.SetDefault("data_paths.logs", "logs")
	v.SetDefault("data_paths.raw_data", "data/raw")
	v.SetDefault("data_paths.metadata", "data/metadata")
	v.SetDefault("data_paths.reports", "reports")

	v.SetDefault("server.metrics_port", 0)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Collection.MinDelaySeconds < 0 {
		return fmt.Errorf("collection_settings.min_delay_seconds must be >= 0")
	}
	if c.Collection.MinQualityThreshold < 0 || c.Collection.MinQualityThreshold > 1 {
		return fmt.Errorf("collection_settings.min_quality_threshold must be in [0,1]")
	}
	if c.Collection.TargetCensusTracts <= 0 {
		return fmt.Errorf("collection_settings.target_census_tracts must be > 0")
	}
	if c.Collection.RateLimitCooldownSeconds < 0 {
		return fmt.Errorf("collection_settings.rate_limit_cooldown_seconds must be >= 0")
	}
	if c.APIs.Census.BaseURL == "" {
		return fmt.Errorf("apis.census.base_url must be set")
	}
	if c.APIs.Census.TimeoutSeconds <= 0 {
		return fmt.Errorf("apis.census.timeout must be > 0")
	}
	if len(c.CensusVariables) == 0 {
		return fmt.Errorf("census_variables must include at least one variable")
	}
	for field, bounds := range c.Quality.ValidRanges {
		if len(bounds) != 2 {
			return fmt.Errorf("quality_checks.valid_ranges.%s must be a [min, max] pair", field)
		}
		if bounds[0] > bounds[1] {
			return fmt.Errorf("quality_checks.valid_ranges.%s: min exceeds max", field)
		}
	}
	for name, dir := range map[string]string{
		"data_paths.logs":     c.DataPaths.Logs,
		"data_paths.raw_data": c.DataPaths.RawData,
		"data_paths.metadata": c.DataPaths.Metadata,
		"data_paths.reports":  c.DataPaths.Reports,
	} {
		if dir == "" {
			return fmt.Errorf("%s must be set", name)
		}
	}
	if c.Server.MetricsPort < 0 {
		return fmt.Errorf("server.metrics_port must be >= 0")
	}
	return nil
}
