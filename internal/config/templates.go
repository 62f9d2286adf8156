package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# chartscan Configuration

[scan]
# Default timeframe: 1min, 5min, 15min, 30min, 1hour, 4hour, 8hour, 12hour, 1day, 1week, 1month
timeframe = "1day"
# Pattern types to scan for; empty means all
types = []
# Report patterns still forming
include_forming = true
# Report patterns that never broke out
include_invalid = false
# Minimum completion for a forming pattern to be reported
min_completion = 0.4
# Only report patterns whose end falls within this many days of the last candle
current_relevance_days = 30

[data]
# Directory with <SYMBOL>_<timeframe>.csv candle files
# candle_dir = "/path/to/candles"
# SQLite database path for the candle cache and scan history
# db_path = "/path/to/chartscan.db"
# How long cached candles stay fresh (e.g. "24h", "30m")
cache_max_age = "24h"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"
`

// createTemplateConfig writes a starter config file and instructions.
func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
