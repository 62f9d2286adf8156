package patterns

import (
	"math"

	"chartscan/internal/analysis"
)

// crossed reports whether price has crossed the boundary by a relative
// buffer, in the given direction.
func crossed(price, boundary float64, up bool, buffer float64) bool {
	if boundary == 0 {
		return false
	}
	threshold := math.Abs(boundary) * buffer
	if up {
		return price >= boundary+threshold
	}
	return price <= boundary-threshold
}

// crossedByamount is the absolute-buffer variant used with ATR sizing.
func crossedByAmount(price, boundary float64, up bool, amount float64) bool {
	if up {
		return price >= boundary+amount
	}
	return price <= boundary-amount
}

// breakoutLine picks the boundary whose breach confirms the candidate.
func breakoutLine(cand *Candidate) (TrendLine, bool) {
	switch cand.Type {
	case DoubleTop, DoubleBottom, HeadAndShoulders, InverseHeadAndShoulders, TripleTop, TripleBottom:
		return cand.necklineLine()
	case TriangleAscending, TriangleSymmetrical, Pennant, Flag, FallingWedge:
		if len(cand.Upper) == 2 {
			return lineFromPoints(cand.Upper[0], cand.Upper[1]), true
		}
	case TriangleDescending, RisingWedge:
		if len(cand.Lower) == 2 {
			return lineFromPoints(cand.Lower[0], cand.Lower[1]), true
		}
	}
	return TrendLine{}, false
}

// confirmBreakout scans forward from the candidate's nominal end for the
// first bar that crosses the boundary by the candidate's buffer rule. The
// horizon bounds the scan; nil means no confirmation inside it.
func confirmBreakout(sc *scanContext, cand *Candidate) *Breakout {
	if cand.Breakout != nil {
		return cand.Breakout
	}
	line, ok := breakoutLine(cand)
	if !ok {
		return nil
	}

	dir := cand.Type.BreakoutDirection()
	up := dir == analysis.DirectionUp
	limit := cand.EndIndex + breakoutHorizon
	if limit > len(sc.candles)-1 {
		limit = len(sc.candles) - 1
	}

	for i := cand.EndIndex + 1; i <= limit; i++ {
		boundary := line.ValueAt(i)
		var hit bool
		switch cand.rule {
		case confirmBodyPct:
			body := bodyLow(sc.candles[i])
			if up {
				body = bodyHigh(sc.candles[i])
			}
			hit = crossed(body, boundary, up, necklineBufferPct)
		case confirmCloseATR:
			buffer := sc.atrAt(i) * atrBufferMult
			if buffer <= 0 {
				// No ATR available; fall back to the percentage rule
				// so short series still confirm deterministically.
				hit = crossed(sc.candles[i].Close, boundary, up, necklineBufferPct)
			} else {
				hit = crossedByAmount(sc.candles[i].Close, boundary, up, buffer)
			}
		default:
			hit = crossed(sc.candles[i].Close, boundary, up, necklineBufferPct)
		}
		if hit {
			return &Breakout{
				Index:     i,
				Time:      sc.candles[i].Timestamp,
				Direction: dir,
			}
		}
	}
	return nil
}

// horizonClosed reports whether the confirmation window for a candidate has
// fully elapsed without a breakout.
func horizonClosed(sc *scanContext, cand *Candidate) bool {
	return cand.EndIndex+breakoutHorizon <= len(sc.candles)-1
}
