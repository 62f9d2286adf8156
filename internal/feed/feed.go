// Package feed supplies candle series to the scan engine: a CSV file
// provider, a store-backed cache, and input validation.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chartscan/internal/models"
)

// Provider retrieves candles for an instrument.
type Provider interface {
	Candles(ctx context.Context, symbol string, timeframe models.Timeframe, from, to time.Time) ([]models.Candle, error)
}

// Validate checks a candle series for problems the engine assumes away:
// ordering, inverted ranges, non-positive prices. It returns human-readable
// warnings; the series itself is not modified.
func Validate(candles []models.Candle) []string {
	var warnings []string
	for i, c := range candles {
		if c.High < c.Low {
			warnings = append(warnings, fmt.Sprintf("candle %d: high %.4f below low %.4f", i, c.High, c.Low))
		}
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
			warnings = append(warnings, fmt.Sprintf("candle %d: non-positive price", i))
		}
		if c.Close > c.High || c.Close < c.Low {
			warnings = append(warnings, fmt.Sprintf("candle %d: close %.4f outside range", i, c.Close))
		}
		if i > 0 && !candles[i-1].Timestamp.Before(c.Timestamp) {
			warnings = append(warnings, fmt.Sprintf("candle %d: timestamp not after previous", i))
		}
	}
	return warnings
}

// Normalize sorts candles by timestamp and drops duplicate timestamps,
// keeping the last occurrence.
func Normalize(candles []models.Candle) []models.Candle {
	if len(candles) == 0 {
		return candles
	}
	out := append([]models.Candle(nil), candles...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	deduped := out[:1]
	for _, c := range out[1:] {
		if c.Timestamp.Equal(deduped[len(deduped)-1].Timestamp) {
			deduped[len(deduped)-1] = c
			continue
		}
		deduped = append(deduped, c)
	}
	return deduped
}
