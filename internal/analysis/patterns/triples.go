package patterns

import (
	"math"
)

const (
	tripleNecklineSlopeCap = 0.02
	tripleMinConfidence    = 0.55
)

// detectTriples finds triple top and triple bottom candidates.
func detectTriples(sc *scanContext) []Candidate {
	var out []Candidate
	out = append(out, detectTripleSide(sc, TripleTop)...)
	out = append(out, detectTripleSide(sc, TripleBottom)...)
	return out
}

func detectTripleSide(sc *scanContext, t Type) []Candidate {
	for stageIdx, stage := range tripleRelaxStages {
		cands := scanTripleStage(sc, t, stage)
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

// scanTripleStage scans pivot quintuples with three mutually near-equal
// same-kind extremes and two mutually near-equal inner anchors. The neckline
// connects the anchors and may slope at most 2%. Candidates below the
// composite confidence floor are dropped outright, never relaxed back in.
func scanTripleStage(sc *scanContext, t Type, stage relaxStage) []Candidate {
	tol := sc.params.TolerancePct * stage.Tolerance
	minBars := sc.params.MinBarsBetweenSwings
	outerKind, innerKind := Peak, Valley
	if t == TripleBottom {
		outerKind, innerKind = Valley, Peak
	}

	var out []Candidate
	for i := 0; i+4 < len(sc.swings); i++ {
		e1, a1, e2, a2, e3 := sc.swings[i], sc.swings[i+1], sc.swings[i+2], sc.swings[i+3], sc.swings[i+4]
		if e1.Kind != outerKind || a1.Kind != innerKind || e2.Kind != outerKind ||
			a2.Kind != innerKind || e3.Kind != outerKind {
			continue
		}
		if a1.Index-e1.Index < minBars || e2.Index-a1.Index < minBars ||
			a2.Index-e2.Index < minBars || e3.Index-a2.Index < minBars {
			continue
		}
		if !pricesEqual(e1.Price, e2.Price, tol) ||
			!pricesEqual(e2.Price, e3.Price, tol) ||
			!pricesEqual(e1.Price, e3.Price, tol) {
			continue
		}
		if !pricesEqual(a1.Price, a2.Price, tol) {
			continue
		}

		// Neckline slope cap.
		anchorRef := (a1.Price + a2.Price) / 2
		if relPct(math.Abs(a2.Price-a1.Price), anchorRef) > tripleNecklineSlopeCap {
			continue
		}

		extremeMean := (e1.Price + e2.Price + e3.Price) / 3
		height := math.Abs(extremeMean - anchorRef)
		if relPct(height, extremeMean) < minPatternHeightPct {
			continue
		}

		cand := Candidate{
			Type:       t,
			StartIndex: e1.Index,
			EndIndex:   e3.Index,
			Pivots:     []SwingPoint{e1, a1, e2, a2, e3},
			Neckline: []Point{
				{X: a1.Index, Y: a1.Price},
				{X: a2.Index, Y: a2.Price},
			},
			Height:  height,
			Penalty: 1.0,
			rule:    confirmClosePct,
		}
		cand.ConfidenceRaw = tripleConfidence(sc, &cand, tol)
		if cand.ConfidenceRaw*typeAdjustment(t) < tripleMinConfidence {
			continue
		}
		out = append(out, cand)
	}
	return out
}

func tripleConfidence(sc *scanContext, cand *Candidate, tol float64) float64 {
	e1, a1, e2, a2, e3 := cand.Pivots[0], cand.Pivots[1], cand.Pivots[2], cand.Pivots[3], cand.Pivots[4]
	extremeMean := (e1.Price + e2.Price + e3.Price) / 3

	// Worst pairwise extreme mismatch against the allowed tolerance.
	worst := math.Max(math.Abs(e1.Price-e2.Price),
		math.Max(math.Abs(e2.Price-e3.Price), math.Abs(e1.Price-e3.Price)))
	tolScore := 1.0
	if tol > 0 && extremeMean != 0 {
		tolScore = clamp01(1 - worst/(tol*math.Abs(extremeMean)))
	}

	anchorScore := 1.0
	anchorRef := (a1.Price + a2.Price) / 2
	if tol > 0 && anchorRef != 0 {
		anchorScore = clamp01(1 - math.Abs(a1.Price-a2.Price)/(tol*math.Abs(anchorRef)))
	}

	neckSlope := relPct(math.Abs(a2.Price-a1.Price), anchorRef)
	neckScore := clamp01(1 - neckSlope/tripleNecklineSlopeCap)

	left := float64(e2.Index - e1.Index)
	right := float64(e3.Index - e2.Index)
	symScore := clamp01(1 - math.Abs(left-right)/(left+right))

	durScore := spanScore(e3.Index-e1.Index, 4*sc.params.MinBarsBetweenSwings, 3*sc.params.WindowSize)

	return clamp01(0.30*tolScore + 0.20*anchorScore + 0.15*neckScore + 0.15*symScore + 0.20*durScore)
}
