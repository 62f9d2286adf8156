// Package models provides domain models for the pattern scanner.
package models

import (
	"time"
)

// Timeframe labels a candle interval. The scanner's adaptive defaults are
// keyed by these labels.
type Timeframe string

const (
	Timeframe1Min   Timeframe = "1min"
	Timeframe5Min   Timeframe = "5min"
	Timeframe15Min  Timeframe = "15min"
	Timeframe30Min  Timeframe = "30min"
	Timeframe1Hour  Timeframe = "1hour"
	Timeframe4Hour  Timeframe = "4hour"
	Timeframe8Hour  Timeframe = "8hour"
	Timeframe12Hour Timeframe = "12hour"
	Timeframe1Day   Timeframe = "1day"
	Timeframe1Week  Timeframe = "1week"
	Timeframe1Month Timeframe = "1month"
)

// Timeframes lists all supported timeframe labels, shortest first.
var Timeframes = []Timeframe{
	Timeframe1Min, Timeframe5Min, Timeframe15Min, Timeframe30Min,
	Timeframe1Hour, Timeframe4Hour, Timeframe8Hour, Timeframe12Hour,
	Timeframe1Day, Timeframe1Week, Timeframe1Month,
}

// Valid reports whether tf is a known timeframe label.
func (tf Timeframe) Valid() bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// Duration returns the nominal calendar length of one bar.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1Min:
		return time.Minute
	case Timeframe5Min:
		return 5 * time.Minute
	case Timeframe15Min:
		return 15 * time.Minute
	case Timeframe30Min:
		return 30 * time.Minute
	case Timeframe1Hour:
		return time.Hour
	case Timeframe4Hour:
		return 4 * time.Hour
	case Timeframe8Hour:
		return 8 * time.Hour
	case Timeframe12Hour:
		return 12 * time.Hour
	case Timeframe1Day:
		return 24 * time.Hour
	case Timeframe1Week:
		return 7 * 24 * time.Hour
	case Timeframe1Month:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// Instrument identifies the series a scan ran against.
type Instrument struct {
	Symbol    string
	Exchange  string
	Timeframe Timeframe
}
