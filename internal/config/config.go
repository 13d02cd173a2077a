package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Source   string `yaml:"source"` // nordpool, tibber, or mock
	NordPool struct {
		BaseURL           string `yaml:"base_url"`
		Area              string `yaml:"area"`
		Currency          string `yaml:"currency"`
		ResolutionMinutes int    `yaml:"resolution_minutes"`
	} `yaml:"nordpool"`
	Tibber struct {
		APIURL   string `yaml:"api_url"`
		APIToken string `yaml:"api_token"`
	} `yaml:"tibber"`
	Classification struct {
		Policy string `yaml:"policy"` // moving_average or absolute
	} `yaml:"classification"`
	Schedule struct {
		FetchHour         int `yaml:"fetch_hour"`
		FetchMinute       int `yaml:"fetch_minute"`
		RetryMinutes      int `yaml:"retry_minutes"`
		ErrorRetrySeconds int `yaml:"error_retry_seconds"`
	} `yaml:"schedule"`
	Storage struct {
		DataDir    string `yaml:"data_dir"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Network struct {
		ProbeAddress   string `yaml:"probe_address"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"network"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("NORDPOOL_BASE_URL"); v != "" {
		cfg.NordPool.BaseURL = v
	}
	if v := os.Getenv("NORDPOOL_AREA"); v != "" {
		cfg.NordPool.Area = v
	}
	if v := os.Getenv("NORDPOOL_CURRENCY"); v != "" {
		cfg.NordPool.Currency = v
	}
	if v := os.Getenv("NORDPOOL_RESOLUTION_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NordPool.ResolutionMinutes = n
		}
	}
	if v := os.Getenv("TIBBER_API_TOKEN"); v != "" {
		cfg.Tibber.APIToken = v
	}
	if v := os.Getenv("CLASSIFY_POLICY"); v != "" {
		cfg.Classification.Policy = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	// Defaults
	if cfg.Source == "" {
		cfg.Source = "nordpool"
	}
	if cfg.NordPool.BaseURL == "" {
		cfg.NordPool.BaseURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPriceIndices"
	}
	if cfg.NordPool.Area == "" {
		cfg.NordPool.Area = "SE3"
	}
	if cfg.NordPool.Currency == "" {
		cfg.NordPool.Currency = "SEK"
	}
	if cfg.NordPool.ResolutionMinutes == 0 {
		cfg.NordPool.ResolutionMinutes = 60
	}
	if cfg.Tibber.APIURL == "" {
		cfg.Tibber.APIURL = "https://api.tibber.com/v1-beta/gql"
	}
	if cfg.Classification.Policy == "" {
		cfg.Classification.Policy = "moving_average"
	}
	if cfg.Schedule.FetchHour == 0 && cfg.Schedule.FetchMinute == 0 {
		cfg.Schedule.FetchHour = 13
	}
	if cfg.Schedule.RetryMinutes == 0 {
		cfg.Schedule.RetryMinutes = 10
	}
	if cfg.Schedule.ErrorRetrySeconds == 0 {
		cfg.Schedule.ErrorRetrySeconds = 30
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Network.TimeoutSeconds == 0 {
		cfg.Network.TimeoutSeconds = 5
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	switch c.Source {
	case "nordpool", "tibber", "mock":
	default:
		return fmt.Errorf("source must be nordpool, tibber, or mock, got %q", c.Source)
	}
	if c.Source == "nordpool" {
		if c.NordPool.BaseURL == "" {
			return fmt.Errorf("nordpool.base_url is required")
		}
		if c.NordPool.Area == "" {
			return fmt.Errorf("nordpool.area is required")
		}
	}
	if c.Source == "tibber" && c.Tibber.APIToken == "" {
		return fmt.Errorf("tibber.api_token is required")
	}
	switch c.Classification.Policy {
	case "moving_average", "absolute":
	default:
		return fmt.Errorf("classification.policy must be moving_average or absolute, got %q", c.Classification.Policy)
	}
	if c.Schedule.FetchHour < 0 || c.Schedule.FetchHour > 23 {
		return fmt.Errorf("schedule.fetch_hour out of range")
	}
	if c.Schedule.FetchMinute < 0 || c.Schedule.FetchMinute > 59 {
		return fmt.Errorf("schedule.fetch_minute out of range")
	}
	return nil
}

// StorePath is the moving-average record location.
func (c *Config) StorePath() string {
	return filepath.Join(c.Storage.DataDir, "nordpool_ma.bin")
}

// CachePath is the price snapshot location.
func (c *Config) CachePath() string {
	return filepath.Join(c.Storage.DataDir, "price_cache.json")
}
