package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scan.Timeframe != "1day" {
		t.Errorf("timeframe = %q, want 1day", cfg.Scan.Timeframe)
	}
	if !cfg.Scan.IncludeForming || cfg.Scan.IncludeInvalid {
		t.Errorf("unexpected status defaults: %+v", cfg.Scan)
	}
	if cfg.Scan.MinCompletion != 0.4 {
		t.Errorf("min_completion = %v, want 0.4", cfg.Scan.MinCompletion)
	}
	if cfg.Data.DBPath != filepath.Join(dir, "chartscan.db") {
		t.Errorf("db_path = %q", cfg.Data.DBPath)
	}
	if cfg.Data.CacheMaxAge != "24h" {
		t.Errorf("cache_max_age = %q", cfg.Data.CacheMaxAge)
	}

	// A starter config is written for editing.
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("expected template config file: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `[scan]
timeframe = "4hour"
types = ["double_top", "falling_wedge"]
min_completion = 0.6

[data]
candle_dir = "/tmp/candles"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scan.Timeframe != "4hour" {
		t.Errorf("timeframe = %q, want 4hour", cfg.Scan.Timeframe)
	}
	if len(cfg.Scan.Types) != 2 || cfg.Scan.Types[0] != "double_top" {
		t.Errorf("types = %v", cfg.Scan.Types)
	}
	if cfg.Scan.MinCompletion != 0.6 {
		t.Errorf("min_completion = %v, want 0.6", cfg.Scan.MinCompletion)
	}
	if cfg.Data.CandleDir != "/tmp/candles" {
		t.Errorf("candle_dir = %q", cfg.Data.CandleDir)
	}
	// Unset keys keep their defaults.
	if cfg.Data.CacheMaxAge != "24h" {
		t.Errorf("cache_max_age = %q, want default", cfg.Data.CacheMaxAge)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad timeframe", "[scan]\ntimeframe = \"2day\"\n"},
		{"bad pattern type", "[scan]\ntypes = [\"cup_and_handle\"]\n"},
		{"bad min completion", "[scan]\nmin_completion = 1.5\n"},
		{"negative relevance days", "[scan]\ncurrent_relevance_days = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CHARTSCAN_CANDLE_DIR", "/override/candles")
	t.Setenv("CHARTSCAN_TIMEFRAME", "1week")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.CandleDir != "/override/candles" {
		t.Errorf("candle_dir = %q", cfg.Data.CandleDir)
	}
	if cfg.Scan.Timeframe != "1week" {
		t.Errorf("timeframe = %q", cfg.Scan.Timeframe)
	}
}
