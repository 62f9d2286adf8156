package patterns

import (
	"math"
)

// detectHeadAndShoulders finds head-and-shoulders and inverse
// head-and-shoulders candidates.
func detectHeadAndShoulders(sc *scanContext) []Candidate {
	var out []Candidate
	out = append(out, detectHSSide(sc, HeadAndShoulders)...)
	out = append(out, detectHSSide(sc, InverseHeadAndShoulders)...)
	return out
}

func detectHSSide(sc *scanContext, t Type) []Candidate {
	for stageIdx, stage := range hsRelaxStages {
		cands := scanHSStage(sc, t, stage)
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

// scanHSStage scans pivot quintuples of shape peak-valley-peak-valley-peak
// (or inverted): shoulders near-equal within the stage tolerance, head
// exceeding both shoulders by the prominence-scaled tolerance. The neckline
// connects the two inner pivots.
func scanHSStage(sc *scanContext, t Type, stage relaxStage) []Candidate {
	tol := sc.params.TolerancePct * stage.Tolerance
	prominence := sc.params.TolerancePct * stage.Prominence
	minBars := sc.params.MinBarsBetweenSwings
	inverse := t == InverseHeadAndShoulders

	outerKind, innerKind := Peak, Valley
	if inverse {
		outerKind, innerKind = Valley, Peak
	}

	var out []Candidate
	for i := 0; i+4 < len(sc.swings); i++ {
		p0, p1, p2, p3, p4 := sc.swings[i], sc.swings[i+1], sc.swings[i+2], sc.swings[i+3], sc.swings[i+4]
		if p0.Kind != outerKind || p1.Kind != innerKind || p2.Kind != outerKind ||
			p3.Kind != innerKind || p4.Kind != outerKind {
			continue
		}
		if p1.Index-p0.Index < minBars || p2.Index-p1.Index < minBars ||
			p3.Index-p2.Index < minBars || p4.Index-p3.Index < minBars {
			continue
		}
		if !pricesEqual(p0.Price, p4.Price, tol) {
			continue
		}
		if !headProminent(p2.Price, p0.Price, p4.Price, prominence, inverse) {
			continue
		}

		neckline := []Point{
			{X: p1.Index, Y: p1.Price},
			{X: p3.Index, Y: p3.Price},
		}
		neckMid := (p1.Price + p3.Price) / 2
		height := math.Abs(p2.Price - neckMid)
		if relPct(height, neckMid) < minPatternHeightPct {
			continue
		}

		cand := Candidate{
			Type:       t,
			StartIndex: p0.Index,
			EndIndex:   p4.Index,
			Pivots:     []SwingPoint{p0, p1, p2, p3, p4},
			Neckline:   neckline,
			Height:     height,
			Penalty:    1.0,
			rule:       confirmClosePct,
		}
		cand.ConfidenceRaw = hsConfidence(sc, &cand, tol, prominence)
		out = append(out, cand)
	}
	return out
}

// headProminent checks that the head exceeds (or, inverted, undercuts) both
// shoulders by the given relative margin.
func headProminent(head, left, right, margin float64, inverse bool) bool {
	if inverse {
		return relPct(left-head, left) >= margin && relPct(right-head, right) >= margin
	}
	return relPct(head-left, left) >= margin && relPct(head-right, right) >= margin
}

// hsConfidence blends shoulder symmetry, head prominence, neckline slope and
// duration.
func hsConfidence(sc *scanContext, cand *Candidate, tol, prominence float64) float64 {
	p0 := cand.Pivots[0]
	p1 := cand.Pivots[1]
	p2 := cand.Pivots[2]
	p3 := cand.Pivots[3]
	p4 := cand.Pivots[4]

	shoulderRef := (math.Abs(p0.Price) + math.Abs(p4.Price)) / 2
	shoulderScore := 1.0
	if tol > 0 && shoulderRef != 0 {
		shoulderScore = clamp01(1 - math.Abs(p0.Price-p4.Price)/(tol*shoulderRef))
	}

	// Head prominence beyond the minimum margin.
	var headMargin float64
	if cand.Type == InverseHeadAndShoulders {
		headMargin = math.Min(relPct(p0.Price-p2.Price, p0.Price), relPct(p4.Price-p2.Price, p4.Price))
	} else {
		headMargin = math.Min(relPct(p2.Price-p0.Price, p0.Price), relPct(p2.Price-p4.Price, p4.Price))
	}
	promScore := 1.0
	if prominence > 0 {
		promScore = clamp01(headMargin / (2 * prominence))
	}

	// Flatter necklines score higher.
	neckSlopePct := relPct(math.Abs(p3.Price-p1.Price), (p1.Price+p3.Price)/2)
	neckScore := clamp01(1 - neckSlopePct/(2*sc.params.TolerancePct))

	// Time symmetry of the two halves around the head.
	left := float64(p2.Index - p0.Index)
	right := float64(p4.Index - p2.Index)
	symScore := clamp01(1 - math.Abs(left-right)/(left+right))

	span := p4.Index - p0.Index
	durScore := spanScore(span, 4*sc.params.MinBarsBetweenSwings, 3*sc.params.WindowSize)

	return clamp01(0.25*shoulderScore + 0.25*promScore + 0.20*neckScore + 0.15*symScore + 0.15*durScore)
}
