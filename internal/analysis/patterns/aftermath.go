package patterns

import (
	"chartscan/internal/analysis"
)

const (
	// aftermathHorizon bounds the target search after a breakout.
	aftermathHorizon = 14
	// partialMovePct is the minimum favorable move for a partial success.
	partialMovePct = 0.03
)

var aftermathWindows = []int{3, 7, 14}

// analyzeAftermath measures what price actually did after a confirmed
// breakout: forward excursions at 3/7/14 bars, the measured-move target, and
// an outcome classification.
func analyzeAftermath(sc *scanContext, cand *Candidate) *Aftermath {
	if cand.Breakout == nil {
		return &Aftermath{
			BreakoutConfirmed: false,
			Outcome:           OutcomeNoBreakout,
		}
	}

	b := cand.Breakout.Index
	up := cand.Breakout.Direction == analysis.DirectionUp
	breakoutClose := sc.candles[b].Close
	target := measuredMoveTarget(cand, up)

	result := &Aftermath{
		BreakoutConfirmed: true,
		TheoreticalTarget: target,
	}

	// A breakout on the final bar leaves nothing to measure. Calling that a
	// failure would skew backtest statistics, so it stays unresolved.
	if b >= len(sc.candles)-1 {
		result.Outcome = OutcomeUnresolved
		return result
	}

	var bestMove float64 // favorable excursion, in the breakout direction
	var worstMove float64
	for _, window := range aftermathWindows {
		limit := b + window
		if limit > len(sc.candles)-1 {
			limit = len(sc.candles) - 1
		}
		if limit <= b {
			continue
		}
		hh := sc.candles[b+1].High
		ll := sc.candles[b+1].Low
		for i := b + 1; i <= limit; i++ {
			if sc.candles[i].High > hh {
				hh = sc.candles[i].High
			}
			if sc.candles[i].Low < ll {
				ll = sc.candles[i].Low
			}
		}
		closePct := 0.0
		if breakoutClose != 0 {
			closePct = (sc.candles[limit].Close - breakoutClose) / breakoutClose * 100
		}
		result.Horizons = append(result.Horizons, HorizonStats{
			Bars:        window,
			HighestHigh: hh,
			LowestLow:   ll,
			ClosePct:    closePct,
		})

		if window == aftermathHorizon {
			if up {
				bestMove = relPct(hh-breakoutClose, breakoutClose)
				worstMove = relPct(breakoutClose-ll, breakoutClose)
				result.TargetReached = hh >= target
			} else {
				bestMove = relPct(breakoutClose-ll, breakoutClose)
				worstMove = relPct(hh-breakoutClose, breakoutClose)
				result.TargetReached = ll <= target
			}
		}
	}

	result.PriceMove = round2(bestMove * 100)

	switch {
	case result.TargetReached:
		result.Outcome = OutcomeTargetReached
	case bestMove > partialMovePct:
		result.Outcome = OutcomePartialSuccess
	case worstMove > partialMovePct:
		// Price ran the wrong way past the threshold.
		result.Outcome = OutcomeFailure
	default:
		result.Outcome = OutcomeFailure
	}
	return result
}

// measuredMoveTarget projects the pattern height beyond the neckline (or
// breakout boundary) in the breakout direction.
func measuredMoveTarget(cand *Candidate, up bool) float64 {
	base := 0.0
	if line, ok := breakoutLine(cand); ok {
		base = line.ValueAt(cand.EndIndex)
	}
	if up {
		return base + cand.Height
	}
	return base - cand.Height
}
