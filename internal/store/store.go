// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"chartscan/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)

	// Scan results
	SaveScan(ctx context.Context, records []ScanRecord) error
	GetScans(ctx context.Context, filter ScanFilter) ([]ScanRecord, error)
	GetPatternStats(ctx context.Context, dateRange DateRange) ([]PatternStats, error)

	// Symbols
	AddSymbol(ctx context.Context, symbol, exchange string) error
	ListSymbols(ctx context.Context) ([]models.Instrument, error)

	// Lifecycle
	Close() error
}

// ScanRecord is one detected pattern persisted from a scan run.
type ScanRecord struct {
	ID          int64
	Symbol      string
	Timeframe   string
	ScanTime    time.Time
	PatternType string
	Status      string
	Confidence  float64
	StartTime   time.Time
	EndTime     time.Time
	BreakoutAt  time.Time // zero when unconfirmed
	Outcome     string
}

// ScanFilter represents filters for querying persisted scan results.
type ScanFilter struct {
	Symbol      string
	Timeframe   string
	PatternType string
	Status      string
	StartDate   time.Time
	EndDate     time.Time
	Limit       int
}

// DateRange represents a date range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// PatternStats aggregates historical outcomes per pattern type.
type PatternStats struct {
	PatternType   string
	Total         int
	Completed     int
	TargetReached int
	Failed        int
	AvgConfidence float64
}
