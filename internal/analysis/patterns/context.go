package patterns

import (
	"math"

	"chartscan/internal/models"
)

// scanContext carries the per-call inputs every recognizer reads. It is
// built once per Scan and never mutated by recognizers.
type scanContext struct {
	candles       []models.Candle
	swings        []SwingPoint
	relaxedSwings []SwingPoint
	peaks         []SwingPoint
	valleys       []SwingPoint
	params        Params
	timeframe     models.Timeframe
	atr           []float64 // ATR(14), nil when the series is too short
}

func newScanContext(candles []models.Candle, p Params, tf models.Timeframe, atr []float64) *scanContext {
	swings := FindSwings(candles, p.SwingDepth, p.StrictPivots)
	relaxed := swings
	if p.StrictPivots {
		relaxed = FindSwings(candles, p.SwingDepth, false)
	}
	return &scanContext{
		candles:       candles,
		swings:        swings,
		relaxedSwings: relaxed,
		peaks:         peaksOf(swings),
		valleys:       valleysOf(swings),
		params:        p,
		timeframe:     tf,
		atr:           atr,
	}
}

// pricesEqual reports whether two prices match within a relative tolerance.
func pricesEqual(p1, p2, tolerance float64) bool {
	ref := (math.Abs(p1) + math.Abs(p2)) / 2
	if ref == 0 {
		return p1 == p2
	}
	return math.Abs(p1-p2)/ref <= tolerance
}

// relPct is the relative difference of a price move against a reference
// price, guarded against zero denominators.
func relPct(move, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return move / math.Abs(ref)
}

// atrAt returns the ATR value at index i, or 0 when unavailable.
func (sc *scanContext) atrAt(i int) float64 {
	if sc.atr == nil || i < 0 || i >= len(sc.atr) {
		return 0
	}
	return sc.atr[i]
}

// bodyHigh returns the higher of open/close at index i.
func bodyHigh(c models.Candle) float64 {
	if c.Open > c.Close {
		return c.Open
	}
	return c.Close
}

// bodyLow returns the lower of open/close at index i.
func bodyLow(c models.Candle) float64 {
	if c.Open < c.Close {
		return c.Open
	}
	return c.Close
}

// spanScore rates a pattern duration: 1.0 inside the preferred band,
// tapering linearly to 0 outside it.
func spanScore(span, minBars, maxBars int) float64 {
	if span <= 0 {
		return 0
	}
	if span >= minBars && span <= maxBars {
		return 1
	}
	if span < minBars {
		return clamp01(float64(span) / float64(minBars))
	}
	return clamp01(float64(maxBars) / float64(span))
}
