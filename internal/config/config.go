// Package config provides configuration management for the chartscan
// application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"chartscan/internal/analysis/patterns"
	"chartscan/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Scan ScanConfig `mapstructure:"scan"`
	Data DataConfig `mapstructure:"data"`
	UI   UIConfig   `mapstructure:"ui"`
}

// ScanConfig holds scan defaults applied when the command line does not
// override them.
type ScanConfig struct {
	Timeframe            string   `mapstructure:"timeframe"`
	Types                []string `mapstructure:"types"`
	IncludeForming       bool     `mapstructure:"include_forming"`
	IncludeInvalid       bool     `mapstructure:"include_invalid"`
	MinCompletion        float64  `mapstructure:"min_completion"`
	CurrentRelevanceDays int      `mapstructure:"current_relevance_days"`
}

// DataConfig holds candle source and persistence configuration.
type DataConfig struct {
	CandleDir   string `mapstructure:"candle_dir"`
	DBPath      string `mapstructure:"db_path"`
	CacheMaxAge string `mapstructure:"cache_max_age"` // duration string, e.g. "24h"
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/chartscan"
	}
	return filepath.Join(home, ".config", "chartscan")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("scan.timeframe", "1day")
	v.SetDefault("scan.include_forming", true)
	v.SetDefault("scan.min_completion", 0.4)
	v.SetDefault("scan.current_relevance_days", 30)
	v.SetDefault("data.candle_dir", filepath.Join(configDir, "candles"))
	v.SetDefault("data.db_path", filepath.Join(configDir, "chartscan.db"))
	v.SetDefault("data.cache_max_age", "24h")
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template then keep the defaults.
			if err := createTemplateConfig(configDir, name); err != nil {
				return err
			}
			return v.Unmarshal(target)
		}
		return err
	}

	return v.Unmarshal(target)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHARTSCAN_CANDLE_DIR"); v != "" {
		cfg.Data.CandleDir = v
	}
	if v := os.Getenv("CHARTSCAN_DB_PATH"); v != "" {
		cfg.Data.DBPath = v
	}
	if v := os.Getenv("CHARTSCAN_TIMEFRAME"); v != "" {
		cfg.Scan.Timeframe = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.Timeframe != "" && !models.Timeframe(c.Scan.Timeframe).Valid() {
		return fmt.Errorf("invalid timeframe: %s", c.Scan.Timeframe)
	}
	if c.Scan.MinCompletion < 0 || c.Scan.MinCompletion > 1 {
		return fmt.Errorf("min_completion must be between 0 and 1")
	}
	if c.Scan.CurrentRelevanceDays < 0 {
		return fmt.Errorf("current_relevance_days must be non-negative")
	}
	for _, t := range c.Scan.Types {
		if !patterns.Type(t).Valid() {
			return fmt.Errorf("invalid pattern type: %s", t)
		}
	}
	return nil
}
