package patterns

import (
	"math"
)

// slopeClass labels a boundary line's normalized slope.
type slopeClass int

const (
	slopeFlat slopeClass = iota
	slopeRising
	slopeFalling
)

// detectTriangles slides a pivot window over the series, fits a line to the
// peaks and one to the valleys, and classifies ascending/descending/
// symmetrical triangles by relative slope. Same-direction slopes are left to
// the wedge recognizer.
func detectTriangles(sc *scanContext) []Candidate {
	window := sc.params.WindowSize
	if window < 6 {
		window = 6
	}
	step := window / 4
	if step < 1 {
		step = 1
	}

	var out []Candidate
	lastStart := -1
	for start := 0; start+window <= len(sc.swings); start += step {
		if cand := classifyTriangleWindow(sc, sc.swings[start:start+window]); cand != nil {
			out = append(out, *cand)
		}
		lastStart = start
	}
	// A trailing window anchored at the end still gets one look so late
	// patterns are not cut off by the stride.
	if tail := len(sc.swings) - window; tail >= 0 && tail != lastStart {
		if cand := classifyTriangleWindow(sc, sc.swings[tail:]); cand != nil {
			out = append(out, *cand)
		}
	} else if len(sc.swings) >= 6 && len(sc.swings) < window {
		if cand := classifyTriangleWindow(sc, sc.swings); cand != nil {
			out = append(out, *cand)
		}
	}
	return out
}

func classifyTriangleWindow(sc *scanContext, window []SwingPoint) *Candidate {
	peaks := peaksOf(window)
	valleys := valleysOf(window)
	if len(peaks) < 3 || len(valleys) < 3 {
		return nil
	}

	upper, upperFit := TrendlineFit(peaks)
	lower, lowerFit := TrendlineFit(valleys)

	// Three descending fit thresholds before giving up on the window.
	fitStage := -1
	for i, thr := range fitThresholds(sc.params.MinFit) {
		if upperFit >= thr && lowerFit >= thr {
			fitStage = i
			break
		}
	}
	if fitStage < 0 {
		return nil
	}

	startIdx := window[0].Index
	endIdx := window[len(window)-1].Index
	avgPrice := (upper.ValueAt(startIdx) + lower.ValueAt(startIdx)) / 2
	if avgPrice == 0 {
		return nil
	}

	flatThr := sc.params.TolerancePct * sc.params.TriangleSlopeCoeff
	upperClass := classifySlope(upper, startIdx, endIdx, avgPrice, flatThr)
	lowerClass := classifySlope(lower, startIdx, endIdx, avgPrice, flatThr)

	var t Type
	switch {
	case upperClass == slopeFlat && lowerClass == slopeRising:
		t = TriangleAscending
	case upperClass == slopeFalling && lowerClass == slopeFlat:
		t = TriangleDescending
	case upperClass == slopeFalling && lowerClass == slopeRising:
		t = TriangleSymmetrical
	default:
		// Same-direction slopes belong to the wedge recognizer; flat
		// channels are out of scope.
		return nil
	}

	// Convergence: the end-of-window spread must have narrowed enough.
	spreadStart := upper.ValueAt(startIdx) - lower.ValueAt(startIdx)
	spreadEnd := upper.ValueAt(endIdx) - lower.ValueAt(endIdx)
	if spreadStart <= 0 || spreadEnd <= 0 {
		return nil
	}
	if spreadEnd >= spreadStart*sc.params.ConvergenceFactor {
		return nil
	}

	cand := &Candidate{
		Type:       t,
		StartIndex: startIdx,
		EndIndex:   endIdx,
		Pivots:     append([]SwingPoint(nil), window...),
		Upper: []Point{
			{X: startIdx, Y: upper.ValueAt(startIdx)},
			{X: endIdx, Y: upper.ValueAt(endIdx)},
		},
		Lower: []Point{
			{X: startIdx, Y: lower.ValueAt(startIdx)},
			{X: endIdx, Y: lower.ValueAt(endIdx)},
		},
		Height:  spreadStart,
		Penalty: 1.0,
		rule:    confirmClosePct,
	}
	cand.ConfidenceRaw = triangleConfidence(sc, cand, upperFit, lowerFit, fitStage, spreadStart, spreadEnd, len(peaks), len(valleys))
	return cand
}

// fitThresholds returns the three descending acceptance gates for a window.
func fitThresholds(minFit float64) [3]float64 {
	return [3]float64{minFit, minFit - 0.05, minFit - 0.10}
}

// classifySlope judges a boundary line as flat, rising or falling from its
// percentage change across the window.
func classifySlope(line TrendLine, startIdx, endIdx int, avgPrice, flatThr float64) slopeClass {
	chg := (line.ValueAt(endIdx) - line.ValueAt(startIdx)) / math.Abs(avgPrice)
	switch {
	case chg > flatThr:
		return slopeRising
	case chg < -flatThr:
		return slopeFalling
	default:
		return slopeFlat
	}
}

func triangleConfidence(sc *scanContext, cand *Candidate, upperFit, lowerFit float64, fitStage int, spreadStart, spreadEnd float64, nPeaks, nValleys int) float64 {
	fitScore := clamp01((upperFit + lowerFit) / 2)
	// Lower acceptance gates shave the fit contribution.
	fitScore *= 1 - 0.1*float64(fitStage)

	convScore := clamp01(1 - spreadEnd/spreadStart)

	touchScore := clamp01(float64(nPeaks+nValleys) / float64(2*sc.params.WindowSize/3))

	span := cand.EndIndex - cand.StartIndex
	durScore := spanScore(span, sc.params.WindowSize/2, sc.params.WindowSize*4)

	return clamp01(0.35*fitScore + 0.30*convScore + 0.15*touchScore + 0.20*durScore)
}
