package patterns

import (
	"math"
)

// provisionalDiscount shaves completion when the right-side pivot is the
// still-open current bar rather than a confirmed swing.
const provisionalDiscount = 0.9

// formingCandidate pairs an in-progress structure with its completion
// estimate.
type formingCandidate struct {
	Candidate
	Completion float64
}

// detectForming estimates how complete in-progress patterns are. A confirmed
// left-side formation is combined with the current, still-open bar as a
// provisional right-side pivot; completion blends the confirmed-structure
// base with how close price is to the mirror level the left side implies.
func detectForming(sc *scanContext, minCompletion float64) []formingCandidate {
	if len(sc.candles) == 0 {
		return nil
	}

	var out []formingCandidate
	out = append(out, formingDoubles(sc)...)
	out = append(out, formingHeadAndShoulders(sc)...)
	out = append(out, formingTriples(sc)...)

	kept := out[:0]
	for _, fc := range out {
		if fc.Completion < minCompletion {
			continue
		}
		if !formationLongEnough(sc, fc.Candidate) {
			continue
		}
		kept = append(kept, fc)
	}
	return kept
}

// formationLongEnough converts the type's minimum bar span to calendar days
// for the scan timeframe and checks the structure has been building at least
// that long.
func formationLongEnough(sc *scanContext, cand Candidate) bool {
	minBars := minFormationBars(cand.Type)
	minDays := float64(minBars) * sc.timeframe.Duration().Hours() / 24

	start := sc.candles[cand.StartIndex].Timestamp
	end := sc.candles[cand.EndIndex].Timestamp
	spanDays := end.Sub(start).Hours() / 24
	return spanDays >= minDays
}

// currentBarPivot builds the provisional right-side pivot from the still-open
// last bar.
func currentBarPivot(sc *scanContext, kind SwingKind) SwingPoint {
	last := len(sc.candles) - 1
	return SwingPoint{
		Index:       last,
		Price:       sc.candles[last].Close,
		Kind:        kind,
		Time:        sc.candles[last].Timestamp,
		Provisional: true,
	}
}

// formingDoubles looks for a confirmed first extreme plus retracement, with
// the current bar climbing back toward the mirror level.
func formingDoubles(sc *scanContext) []formingCandidate {
	var out []formingCandidate
	for _, t := range []Type{DoubleTop, DoubleBottom} {
		outerKind, innerKind := Peak, Valley
		if t == DoubleBottom {
			outerKind, innerKind = Valley, Peak
		}

		// Most recent confirmed (extreme, retracement) pair.
		var a, b *SwingPoint
		for i := len(sc.swings) - 1; i > 0; i-- {
			if sc.swings[i].Kind == innerKind && sc.swings[i-1].Kind == outerKind {
				b = &sc.swings[i]
				a = &sc.swings[i-1]
				break
			}
		}
		if a == nil || b == nil {
			continue
		}

		height := math.Abs(a.Price - b.Price)
		if relPct(height, a.Price) < minPatternHeightPct {
			continue
		}

		current := currentBarPivot(sc, outerKind)
		if current.Index <= b.Index {
			continue
		}
		// Price must have left the retracement toward the mirror level.
		if t == DoubleTop && current.Price <= b.Price {
			continue
		}
		if t == DoubleBottom && current.Price >= b.Price {
			continue
		}

		progress := clamp01(1 - math.Abs(current.Price-a.Price)/height)
		completion := (0.65 + 0.35*progress) * provisionalDiscount

		cand := Candidate{
			Type:       t,
			StartIndex: a.Index,
			EndIndex:   current.Index,
			Pivots:     []SwingPoint{*a, *b, current},
			Neckline: []Point{
				{X: a.Index, Y: b.Price},
				{X: current.Index, Y: b.Price},
			},
			Height:  height,
			Penalty: 1.0,
			rule:    confirmClosePct,
		}
		cand.ConfidenceRaw = doubleConfidence(sc, &cand, *a, *b, current, sc.params.TolerancePct)
		out = append(out, formingCandidate{Candidate: cand, Completion: completion})
	}
	return out
}

// formingHeadAndShoulders requires left shoulder, head and the post-head
// retracement to be confirmed; the right shoulder is the provisional pivot.
func formingHeadAndShoulders(sc *scanContext) []formingCandidate {
	var out []formingCandidate
	for _, t := range []Type{HeadAndShoulders, InverseHeadAndShoulders} {
		inverse := t == InverseHeadAndShoulders
		outerKind, innerKind := Peak, Valley
		if inverse {
			outerKind, innerKind = Valley, Peak
		}

		// Most recent confirmed p0-p1-p2-p3 run.
		var p0, p1, p2, p3 *SwingPoint
		for i := len(sc.swings) - 1; i >= 3; i-- {
			s3, s2, s1, s0 := &sc.swings[i], &sc.swings[i-1], &sc.swings[i-2], &sc.swings[i-3]
			if s0.Kind == outerKind && s1.Kind == innerKind && s2.Kind == outerKind && s3.Kind == innerKind {
				p0, p1, p2, p3 = s0, s1, s2, s3
				break
			}
		}
		if p0 == nil {
			continue
		}
		if !headProminent(p2.Price, p0.Price, p0.Price, sc.params.TolerancePct, inverse) {
			continue
		}

		current := currentBarPivot(sc, outerKind)
		if current.Index <= p3.Index {
			continue
		}

		// Mirror level for the right shoulder is the left shoulder.
		span := math.Abs(p2.Price - p3.Price)
		if span == 0 {
			continue
		}
		progress := clamp01(1 - math.Abs(current.Price-p0.Price)/span)
		completion := (0.75 + 0.25*progress) * provisionalDiscount

		neckMid := (p1.Price + p3.Price) / 2
		cand := Candidate{
			Type:       t,
			StartIndex: p0.Index,
			EndIndex:   current.Index,
			Pivots:     []SwingPoint{*p0, *p1, *p2, *p3, current},
			Neckline: []Point{
				{X: p1.Index, Y: p1.Price},
				{X: p3.Index, Y: p3.Price},
			},
			Height:  math.Abs(p2.Price - neckMid),
			Penalty: 1.0,
			rule:    confirmClosePct,
		}
		cand.ConfidenceRaw = hsConfidence(sc, &cand, sc.params.TolerancePct, sc.params.TolerancePct)
		out = append(out, formingCandidate{Candidate: cand, Completion: completion})
	}
	return out
}

// formingTriples requires two confirmed extremes and both anchors; the third
// extreme is the provisional pivot.
func formingTriples(sc *scanContext) []formingCandidate {
	var out []formingCandidate
	for _, t := range []Type{TripleTop, TripleBottom} {
		outerKind, innerKind := Peak, Valley
		if t == TripleBottom {
			outerKind, innerKind = Valley, Peak
		}

		var e1, a1, e2, a2 *SwingPoint
		for i := len(sc.swings) - 1; i >= 3; i-- {
			s3, s2, s1, s0 := &sc.swings[i], &sc.swings[i-1], &sc.swings[i-2], &sc.swings[i-3]
			if s0.Kind == outerKind && s1.Kind == innerKind && s2.Kind == outerKind && s3.Kind == innerKind {
				e1, a1, e2, a2 = s0, s1, s2, s3
				break
			}
		}
		if e1 == nil {
			continue
		}
		if !pricesEqual(e1.Price, e2.Price, sc.params.TolerancePct) {
			continue
		}
		if !pricesEqual(a1.Price, a2.Price, sc.params.TolerancePct) {
			continue
		}

		current := currentBarPivot(sc, outerKind)
		if current.Index <= a2.Index {
			continue
		}

		mirror := (e1.Price + e2.Price) / 2
		height := math.Abs(mirror - (a1.Price+a2.Price)/2)
		if height == 0 {
			continue
		}
		progress := clamp01(1 - math.Abs(current.Price-mirror)/height)
		completion := (0.75 + 0.25*progress) * provisionalDiscount

		cand := Candidate{
			Type:       t,
			StartIndex: e1.Index,
			EndIndex:   current.Index,
			Pivots:     []SwingPoint{*e1, *a1, *e2, *a2, current},
			Neckline: []Point{
				{X: a1.Index, Y: a1.Price},
				{X: a2.Index, Y: a2.Price},
			},
			Height:  height,
			Penalty: 1.0,
			rule:    confirmClosePct,
		}
		cand.ConfidenceRaw = tripleConfidence(sc, &cand, sc.params.TolerancePct)
		out = append(out, formingCandidate{Candidate: cand, Completion: completion})
	}
	return out
}

// candidateCompletion estimates completion for window patterns (triangles,
// wedges, flags) whose confirmation horizon is still open: structure base
// plus convergence progress.
func candidateCompletion(cand *Candidate) float64 {
	base := 0.6
	progress := 0.0
	if len(cand.Upper) == 2 && len(cand.Lower) == 2 && cand.Height > 0 {
		gapEnd := cand.Upper[1].Y - cand.Lower[1].Y
		progress = clamp01(1 - gapEnd/cand.Height)
	}
	return clamp01(base + 0.4*progress)
}
