package patterns

import (
	"math"

	"chartscan/internal/models"
)

// FindSwings scans the candle sequence for local extrema. A bar is compared
// against depth neighbors on each side using wick highs/lows; the recorded
// pivot price is the close at that index so wick noise does not inflate
// pattern heights.
//
// In strict mode a peak must exceed every neighbor on both sides (ties lose).
// In relaxed mode each side only needs ceil(depth*0.6) winning comparisons;
// relaxed pivots feed the secondary wedge passes only.
func FindSwings(candles []models.Candle, depth int, strict bool) []SwingPoint {
	if depth < 1 || len(candles) < 2*depth+1 {
		return nil
	}

	needed := int(math.Ceil(float64(depth) * 0.6))
	var swings []SwingPoint

	for i := depth; i < len(candles)-depth; i++ {
		isPeak := false
		isValley := false

		if strict {
			isPeak = strictExtreme(candles, i, depth, true)
			isValley = strictExtreme(candles, i, depth, false)
		} else {
			isPeak = votedExtreme(candles, i, depth, needed, true)
			isValley = votedExtreme(candles, i, depth, needed, false)
		}

		// Ambiguous bars qualifying as both are dropped.
		if isPeak == isValley {
			continue
		}

		kind := Peak
		if isValley {
			kind = Valley
		}
		swings = append(swings, SwingPoint{
			Index: i,
			Price: candles[i].Close,
			Kind:  kind,
			Time:  candles[i].Timestamp,
		})
	}

	return swings
}

// strictExtreme reports whether candle i beats all depth neighbors on both
// sides. Ties break toward "not a pivot".
func strictExtreme(candles []models.Candle, i, depth int, peak bool) bool {
	for j := 1; j <= depth; j++ {
		if peak {
			if candles[i].High <= candles[i-j].High || candles[i].High <= candles[i+j].High {
				return false
			}
		} else {
			if candles[i].Low >= candles[i-j].Low || candles[i].Low >= candles[i+j].Low {
				return false
			}
		}
	}
	return true
}

// votedExtreme requires at least needed winning comparisons on each side.
func votedExtreme(candles []models.Candle, i, depth, needed int, peak bool) bool {
	left, right := 0, 0
	for j := 1; j <= depth; j++ {
		if peak {
			if candles[i].High > candles[i-j].High {
				left++
			}
			if candles[i].High > candles[i+j].High {
				right++
			}
		} else {
			if candles[i].Low < candles[i-j].Low {
				left++
			}
			if candles[i].Low < candles[i+j].Low {
				right++
			}
		}
	}
	return left >= needed && right >= needed
}

// peaksOf filters pivots down to peaks.
func peaksOf(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.Kind == Peak {
			out = append(out, s)
		}
	}
	return out
}

// valleysOf filters pivots down to valleys.
func valleysOf(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.Kind == Valley {
			out = append(out, s)
		}
	}
	return out
}
