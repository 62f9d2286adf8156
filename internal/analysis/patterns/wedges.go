package patterns

import (
	"math"
	"sort"
)

// WedgeStrategy is one independent way of finding rising/falling wedges.
// Both implementations run on every scan; their overlapping candidates are
// collapsed by the global deduplicator, never special-cased by name.
type WedgeStrategy interface {
	Name() string
	Detect(sc *scanContext) []Candidate
}

// wedgeStrategies lists the active strategies in execution order.
var wedgeStrategies = []WedgeStrategy{
	regressionWindowWedge{},
	pivotLineWedge{},
}

// detectWedges runs every wedge strategy and merges their output.
func detectWedges(sc *scanContext) []Candidate {
	var out []Candidate
	for _, strat := range wedgeStrategies {
		out = append(out, strat.Detect(sc)...)
	}
	return out
}

const (
	wedgeMinR2         = 0.25
	wedgeMinSlopeRatio = 0.30
	wedgeConvergence   = 0.80
	wedgeMinTouches    = 3
	wedgeMinScore      = 0.50
)

// regressionWindowWedge slides windows of 25-90 bars (step 5) over the
// relaxed pivot set, fits R2-scored lines to peaks and valleys, and accepts
// windows where both slopes run the same way, converge, and clear a
// composite quality score.
type regressionWindowWedge struct{}

func (regressionWindowWedge) Name() string { return "regression_window" }

func (regressionWindowWedge) Detect(sc *scanContext) []Candidate {
	n := len(sc.candles)
	var out []Candidate
	for window := 25; window <= 90; window += 5 {
		if window > n {
			break
		}
		for start := 0; start+window <= n; start += 5 {
			if cand := scanRegressionWedgeWindow(sc, start, start+window-1); cand != nil {
				out = append(out, *cand)
			}
		}
	}
	return out
}

func scanRegressionWedgeWindow(sc *scanContext, startIdx, endIdx int) *Candidate {
	var peaks, valleys []SwingPoint
	for _, s := range sc.relaxedSwings {
		if s.Index < startIdx || s.Index > endIdx {
			continue
		}
		if s.Kind == Peak {
			peaks = append(peaks, s)
		} else {
			valleys = append(valleys, s)
		}
	}
	if len(peaks) < wedgeMinTouches || len(valleys) < wedgeMinTouches {
		return nil
	}
	// Touch balance between sides.
	if abs(len(peaks)-len(valleys)) > 2 {
		return nil
	}

	upper, upperOK := FitWithR2(peaks)
	lower, lowerOK := FitWithR2(valleys)
	if !upperOK || !lowerOK {
		return nil
	}
	if upper.R2 < wedgeMinR2 || lower.R2 < wedgeMinR2 {
		return nil
	}

	// Both slopes must run the same way; a one-sided drift is a triangle.
	if upper.Slope == 0 || lower.Slope == 0 {
		return nil
	}
	if (upper.Slope > 0) != (lower.Slope > 0) {
		return nil
	}
	weaker := math.Min(math.Abs(upper.Slope), math.Abs(lower.Slope))
	stronger := math.Max(math.Abs(upper.Slope), math.Abs(lower.Slope))
	if stronger == 0 || weaker/stronger < wedgeMinSlopeRatio {
		return nil
	}

	gapStart := upper.ValueAt(startIdx) - lower.ValueAt(startIdx)
	gapEnd := upper.ValueAt(endIdx) - lower.ValueAt(endIdx)
	if gapStart <= 0 || gapEnd <= 0 {
		return nil
	}
	if gapEnd >= gapStart*wedgeConvergence {
		return nil
	}

	t := RisingWedge
	if upper.Slope < 0 {
		t = FallingWedge
	}

	pivots := append(append([]SwingPoint(nil), peaks...), valleys...)
	sortSwingsByIndex(pivots)

	cand := &Candidate{
		Type:       t,
		StartIndex: startIdx,
		EndIndex:   endIdx,
		Pivots:     pivots,
		Upper: []Point{
			{X: startIdx, Y: upper.ValueAt(startIdx)},
			{X: endIdx, Y: upper.ValueAt(endIdx)},
		},
		Lower: []Point{
			{X: startIdx, Y: lower.ValueAt(startIdx)},
			{X: endIdx, Y: lower.ValueAt(endIdx)},
		},
		Height:  gapStart,
		Penalty: 1.0,
		rule:    confirmCloseATR,
	}

	score := wedgeCompositeScore(sc, cand, upper, lower, pivots, gapStart, gapEnd)
	if score < wedgeMinScore {
		return nil
	}
	cand.ConfidenceRaw = score
	return cand
}

// wedgeCompositeScore blends fit, convergence, touch count, alternation,
// inside-ratio and duration into one [0,1] quality measure.
func wedgeCompositeScore(sc *scanContext, cand *Candidate, upper, lower TrendLine, pivots []SwingPoint, gapStart, gapEnd float64) float64 {
	fitScore := clamp01((upper.R2 + lower.R2) / 2)
	convScore := clamp01(1 - gapEnd/gapStart)
	touchScore := clamp01(float64(len(pivots)) / 10)

	// Alternation: peaks and valleys should interleave.
	alternations := 0
	for i := 1; i < len(pivots); i++ {
		if pivots[i].Kind != pivots[i-1].Kind {
			alternations++
		}
	}
	altScore := 0.0
	if len(pivots) > 1 {
		altScore = clamp01(float64(alternations) / float64(len(pivots)-1))
	}

	// Inside ratio: closes should live between the two boundary lines.
	inside := 0
	total := 0
	for i := cand.StartIndex; i <= cand.EndIndex && i < len(sc.candles); i++ {
		c := sc.candles[i].Close
		lo := lower.ValueAt(i)
		hi := upper.ValueAt(i)
		margin := (hi - lo) * 0.05
		if c >= lo-margin && c <= hi+margin {
			inside++
		}
		total++
	}
	insideScore := 0.0
	if total > 0 {
		insideScore = float64(inside) / float64(total)
	}

	durScore := spanScore(cand.EndIndex-cand.StartIndex, 25, 90)

	return clamp01(0.25*fitScore + 0.20*convScore + 0.15*touchScore +
		0.15*altScore + 0.15*insideScore + 0.10*durScore)
}

// pivotLineWedge draws each boundary as a straight line between two literal
// pivots (one from the first third of the window, one from the last third)
// instead of a regression, and confirms breakouts with candle bodies.
type pivotLineWedge struct{}

func (pivotLineWedge) Name() string { return "pivot_line" }

func (pivotLineWedge) Detect(sc *scanContext) []Candidate {
	n := len(sc.candles)
	var out []Candidate
	for window := 40; window <= 80; window += 10 {
		if window > n {
			break
		}
		for start := 0; start+window <= n; start += 5 {
			if cand := scanPivotWedgeWindow(sc, start, start+window-1); cand != nil {
				out = append(out, *cand)
			}
		}
	}
	return out
}

func scanPivotWedgeWindow(sc *scanContext, startIdx, endIdx int) *Candidate {
	window := endIdx - startIdx + 1
	firstThird := startIdx + window/3
	lastThird := endIdx - window/3

	var peaks, valleys []SwingPoint
	for _, s := range sc.swings {
		if s.Index < startIdx || s.Index > endIdx {
			continue
		}
		if s.Kind == Peak {
			peaks = append(peaks, s)
		} else {
			valleys = append(valleys, s)
		}
	}
	if len(peaks) < 2 || len(valleys) < 2 {
		return nil
	}

	upperA, okA := extremePivot(peaks, startIdx, firstThird, true)
	upperB, okB := extremePivot(peaks, lastThird, endIdx, true)
	lowerA, okC := extremePivot(valleys, startIdx, firstThird, false)
	lowerB, okD := extremePivot(valleys, lastThird, endIdx, false)
	if !okA || !okB || !okC || !okD {
		return nil
	}

	upper := lineFromPoints(Point{upperA.Index, upperA.Price}, Point{upperB.Index, upperB.Price})
	lower := lineFromPoints(Point{lowerA.Index, lowerA.Price}, Point{lowerB.Index, lowerB.Price})

	if upper.Slope == 0 || lower.Slope == 0 {
		return nil
	}
	if (upper.Slope > 0) != (lower.Slope > 0) {
		return nil
	}

	gapStart := upper.ValueAt(startIdx) - lower.ValueAt(startIdx)
	gapEnd := upper.ValueAt(endIdx) - lower.ValueAt(endIdx)
	if gapStart <= 0 || gapEnd <= 0 || gapEnd >= gapStart*wedgeConvergence {
		return nil
	}

	tol := sc.params.TolerancePct / 2
	if violations(peaks, upper, tol, true) > 1 {
		return nil
	}
	if violations(valleys, lower, tol, false) > 1 {
		return nil
	}

	upperTouches := touchIndices(peaks, upper, tol)
	lowerTouches := touchIndices(valleys, lower, tol)
	if len(upperTouches) < 2 || len(lowerTouches) < 2 {
		return nil
	}
	maxGap := window / 2
	if maxTouchGap(upperTouches) > maxGap || maxTouchGap(lowerTouches) > maxGap {
		return nil
	}

	t := RisingWedge
	if upper.Slope < 0 {
		t = FallingWedge
	}

	pivots := append(append([]SwingPoint(nil), peaks...), valleys...)
	sortSwingsByIndex(pivots)

	cand := &Candidate{
		Type:       t,
		StartIndex: startIdx,
		EndIndex:   endIdx,
		Pivots:     pivots,
		Upper: []Point{
			{X: upperA.Index, Y: upperA.Price},
			{X: upperB.Index, Y: upperB.Price},
		},
		Lower: []Point{
			{X: lowerA.Index, Y: lowerA.Price},
			{X: lowerB.Index, Y: lowerB.Price},
		},
		Height:  gapStart,
		Penalty: 1.0,
		rule:    confirmBodyPct,
	}

	touchScore := clamp01(float64(len(upperTouches)+len(lowerTouches)) / 8)
	convScore := clamp01(1 - gapEnd/gapStart)
	durScore := spanScore(window, 40, 80)
	cand.ConfidenceRaw = clamp01(0.40*touchScore + 0.35*convScore + 0.25*durScore)
	return cand
}

// extremePivot picks the highest peak (or lowest valley) inside [from, to].
func extremePivot(pivots []SwingPoint, from, to int, highest bool) (SwingPoint, bool) {
	var best SwingPoint
	found := false
	for _, p := range pivots {
		if p.Index < from || p.Index > to {
			continue
		}
		if !found || (highest && p.Price > best.Price) || (!highest && p.Price < best.Price) {
			best = p
			found = true
		}
	}
	return best, found
}

// violations counts pivots beyond the boundary line by more than the
// tolerance; above for upper lines, below for lower.
func violations(pivots []SwingPoint, line TrendLine, tol float64, upper bool) int {
	count := 0
	for _, p := range pivots {
		v := line.ValueAt(p.Index)
		if v == 0 {
			continue
		}
		diff := (p.Price - v) / math.Abs(v)
		if upper && diff > tol {
			count++
		}
		if !upper && diff < -tol {
			count++
		}
	}
	return count
}

// touchIndices returns the indices of pivots sitting within tolerance of the
// line, in ascending order.
func touchIndices(pivots []SwingPoint, line TrendLine, tol float64) []int {
	var out []int
	for _, p := range pivots {
		v := line.ValueAt(p.Index)
		if v == 0 {
			continue
		}
		if math.Abs(p.Price-v)/math.Abs(v) <= tol {
			out = append(out, p.Index)
		}
	}
	return out
}

// maxTouchGap returns the largest spacing between consecutive touches.
func maxTouchGap(indices []int) int {
	maxGap := 0
	for i := 1; i < len(indices); i++ {
		if gap := indices[i] - indices[i-1]; gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// sortSwingsByIndex orders pivots by bar index in place.
func sortSwingsByIndex(pivots []SwingPoint) {
	sort.Slice(pivots, func(i, j int) bool {
		return pivots[i].Index < pivots[j].Index
	})
}
