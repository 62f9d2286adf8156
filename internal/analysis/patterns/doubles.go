package patterns

import (
	"math"

	"chartscan/internal/analysis"
)

// detectDoubles finds double top and double bottom candidates.
func detectDoubles(sc *scanContext) []Candidate {
	var out []Candidate
	out = append(out, detectDoubleSide(sc, DoubleTop)...)
	out = append(out, detectDoubleSide(sc, DoubleBottom)...)
	return out
}

// detectDoubleSide runs the ordered relaxation loop for one side: the first
// stage that yields any match wins, and its candidates carry that stage's
// confidence penalty.
func detectDoubleSide(sc *scanContext, t Type) []Candidate {
	for stageIdx, stage := range doubleRelaxStages {
		cands := scanDoubleStage(sc, t, stage)
		if len(cands) == 0 {
			continue
		}
		for i := range cands {
			cands[i].FallbackStage = stageIdx
			cands[i].Penalty = stage.Penalty
		}
		return cands
	}
	return nil
}

// scanDoubleStage scans consecutive pivot triples (A, B, C) for the
// peak-valley-peak (top) or valley-peak-valley (bottom) shape with A and C
// near-equal, sufficient height and spacing, and a neckline cross within the
// bounded look-ahead after C.
func scanDoubleStage(sc *scanContext, t Type, stage relaxStage) []Candidate {
	tol := sc.params.TolerancePct * stage.Tolerance
	minBars := sc.params.MinBarsBetweenSwings
	outerKind, innerKind := Peak, Valley
	if t == DoubleBottom {
		outerKind, innerKind = Valley, Peak
	}

	var out []Candidate
	for i := 0; i+2 < len(sc.swings); i++ {
		a, b, c := sc.swings[i], sc.swings[i+1], sc.swings[i+2]
		if a.Kind != outerKind || b.Kind != innerKind || c.Kind != outerKind {
			continue
		}
		if b.Index-a.Index < minBars || c.Index-b.Index < minBars {
			continue
		}
		if !pricesEqual(a.Price, c.Price, tol) {
			continue
		}

		extreme := (a.Price + c.Price) / 2
		height := math.Abs(extreme - b.Price)
		if relPct(height, extreme) < minPatternHeightPct {
			continue
		}

		breakout := findNecklineCross(sc, t, b.Price, c.Index, doubleBreakoutLookahead)
		if breakout == nil {
			// Rejected as no_breakout; the forming pass may still pick
			// up the left-side structure.
			continue
		}

		cand := Candidate{
			Type:       t,
			StartIndex: a.Index,
			EndIndex:   c.Index,
			Pivots:     []SwingPoint{a, b, c},
			Neckline: []Point{
				{X: a.Index, Y: b.Price},
				{X: c.Index, Y: b.Price},
			},
			Height:   height,
			Penalty:  1.0,
			rule:     confirmClosePct,
			Breakout: breakout,
		}
		cand.ConfidenceRaw = doubleConfidence(sc, &cand, a, b, c, tol)
		out = append(out, cand)
	}
	return out
}

// findNecklineCross scans at most lookahead bars after from for a close
// crossing the horizontal neckline by the percentage buffer, in the
// direction the pattern type expects.
func findNecklineCross(sc *scanContext, t Type, neckline float64, from, lookahead int) *Breakout {
	dir := t.BreakoutDirection()
	limit := from + lookahead
	if limit > len(sc.candles)-1 {
		limit = len(sc.candles) - 1
	}
	for i := from + 1; i <= limit; i++ {
		close := sc.candles[i].Close
		if crossed(close, neckline, dir == analysis.DirectionUp, necklineBufferPct) {
			return &Breakout{
				Index:     i,
				Time:      sc.candles[i].Timestamp,
				Direction: dir,
			}
		}
	}
	return nil
}

// doubleConfidence blends the geometric sub-scores for a double top/bottom.
func doubleConfidence(sc *scanContext, cand *Candidate, a, b, c SwingPoint, tol float64) float64 {
	extreme := (a.Price + c.Price) / 2

	// How much equality tolerance was left unused.
	tolScore := 1.0
	if tol > 0 && extreme != 0 {
		tolScore = clamp01(1 - math.Abs(a.Price-c.Price)/(tol*math.Abs(extreme)))
	}

	// Spacing symmetry between the two halves.
	left := float64(b.Index - a.Index)
	right := float64(c.Index - b.Index)
	symScore := clamp01(1 - math.Abs(left-right)/(left+right))

	heightScore := clamp01(relPct(cand.Height, extreme) / (3 * minPatternHeightPct))

	span := c.Index - a.Index
	durScore := spanScore(span, 2*sc.params.MinBarsBetweenSwings, 2*sc.params.WindowSize)

	return clamp01(0.35*tolScore + 0.25*symScore + 0.20*heightScore + 0.20*durScore)
}
