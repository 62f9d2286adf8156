package patterns

import (
	"math"
)

const (
	poleLookback      = 10
	minConsolidation  = 5
	maxConsolidation  = 15
	parallelSlopeDiff = 0.15 // max relative slope mismatch for a flag channel
)

// detectFlags finds pennants and flags: a strong directional pole followed
// by a short consolidation. A pennant converges (highs falling, lows
// rising); a flag is a near-parallel channel sloping against the pole.
func detectFlags(sc *scanContext) []Candidate {
	n := len(sc.candles)
	if n < poleLookback+minConsolidation+1 {
		return nil
	}

	var out []Candidate
	for poleEnd := poleLookback; poleEnd <= n-1-minConsolidation; poleEnd++ {
		poleStart := poleEnd - poleLookback
		startPrice := sc.candles[poleStart].Close
		if startPrice == 0 {
			continue
		}
		poleMove := sc.candles[poleEnd].Close - startPrice
		if math.Abs(poleMove)/math.Abs(startPrice) < sc.params.PoleMinPct {
			continue
		}
		bullishPole := poleMove > 0

		consEnd := poleEnd + maxConsolidation
		if consEnd > n-1 {
			consEnd = n - 1
		}
		if consEnd-poleEnd < minConsolidation {
			continue
		}

		if cand := classifyConsolidation(sc, poleStart, poleEnd, consEnd, bullishPole, math.Abs(poleMove)); cand != nil {
			out = append(out, *cand)
		}
	}
	return out
}

// classifyConsolidation fits lines to the consolidation bar highs and lows
// and labels the window pennant (converging) or flag (counter-trend
// channel).
func classifyConsolidation(sc *scanContext, poleStart, poleEnd, consEnd int, bullishPole bool, poleHeight float64) *Candidate {
	var highs, lows []SwingPoint
	for i := poleEnd; i <= consEnd; i++ {
		highs = append(highs, SwingPoint{Index: i, Price: sc.candles[i].High, Kind: Peak})
		lows = append(lows, SwingPoint{Index: i, Price: sc.candles[i].Low, Kind: Valley})
	}

	upper, upperFit := TrendlineFit(highs)
	lower, lowerFit := TrendlineFit(lows)
	avgPrice := sc.candles[poleEnd].Close
	if avgPrice == 0 {
		return nil
	}

	// Normalize slopes to percent-per-bar.
	upSlope := upper.Slope / math.Abs(avgPrice)
	loSlope := lower.Slope / math.Abs(avgPrice)

	var t Type
	switch {
	case upSlope < 0 && loSlope > 0:
		t = Pennant
	case isParallelChannel(upSlope, loSlope) && counterTrend(upSlope, bullishPole):
		t = Flag
	default:
		return nil
	}

	cand := &Candidate{
		Type:       t,
		StartIndex: poleStart,
		EndIndex:   consEnd,
		Upper: []Point{
			{X: poleEnd, Y: upper.ValueAt(poleEnd)},
			{X: consEnd, Y: upper.ValueAt(consEnd)},
		},
		Lower: []Point{
			{X: poleEnd, Y: lower.ValueAt(poleEnd)},
			{X: consEnd, Y: lower.ValueAt(consEnd)},
		},
		Height:  poleHeight,
		Penalty: 1.0,
		rule:    confirmClosePct,
	}

	poleScore := clamp01(relPct(poleHeight, avgPrice) / (2 * sc.params.PoleMinPct))
	fitScore := clamp01((upperFit + lowerFit) / 2)
	durScore := spanScore(consEnd-poleEnd, minConsolidation, maxConsolidation)
	cand.ConfidenceRaw = clamp01(0.40*poleScore + 0.35*fitScore + 0.25*durScore)
	return cand
}

// isParallelChannel reports whether two normalized slopes are close enough
// to call the consolidation a channel.
func isParallelChannel(upSlope, loSlope float64) bool {
	stronger := math.Max(math.Abs(upSlope), math.Abs(loSlope))
	if stronger == 0 {
		return false
	}
	return math.Abs(upSlope-loSlope)/stronger <= parallelSlopeDiff
}

// counterTrend requires the channel to slope against the pole direction.
func counterTrend(upSlope float64, bullishPole bool) bool {
	if bullishPole {
		return upSlope < 0
	}
	return upSlope > 0
}
