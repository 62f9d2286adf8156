package patterns

import (
	"time"

	"chartscan/internal/models"
)

var fixtureStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// closesThrough linearly interpolates a close series through (index, price)
// anchors. Anchor indexes must be strictly increasing and start at zero; the
// series ends at the last anchor.
func closesThrough(anchors ...[2]float64) []float64 {
	last := int(anchors[len(anchors)-1][0])
	closes := make([]float64, last+1)
	for k := 0; k+1 < len(anchors); k++ {
		x0, y0 := int(anchors[k][0]), anchors[k][1]
		x1, y1 := int(anchors[k+1][0]), anchors[k+1][1]
		slope := (y1 - y0) / float64(x1-x0)
		for i := x0; i <= x1; i++ {
			closes[i] = y0 + slope*float64(i-x0)
		}
	}
	return closes
}

// candlesFromCloses builds a daily series with flat bodies and a fixed 0.2
// wick on each side, so pivot structure follows the closes exactly.
func candlesFromCloses(closes []float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: fixtureStart.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c + 0.2,
			Low:       c - 0.2,
			Close:     c,
			Volume:    1000,
		}
	}
	return candles
}
