package patterns

import (
	"math"

	"github.com/sajari/regression"
)

// Fit computes the least-squares line over pivot (index, price) pairs.
// Degenerate inputs (fewer than 2 points, zero index spread) yield a flat
// line through the mean price with R2 = 0 rather than NaN.
func Fit(points []SwingPoint) TrendLine {
	line, _ := FitWithR2(points)
	return line
}

// FitWithR2 fits a least-squares line and reports R2 clamped to [0, 1]. The
// boolean is false when the fit degenerated to the flat fallback.
func FitWithR2(points []SwingPoint) (TrendLine, bool) {
	if len(points) < 2 {
		return fallbackLine(points), false
	}

	first := points[0].Index
	spread := false
	for _, p := range points[1:] {
		if p.Index != first {
			spread = true
			break
		}
	}
	if !spread {
		return fallbackLine(points), false
	}

	r := new(regression.Regression)
	r.SetObserved("price")
	r.SetVar(0, "bar")
	for _, p := range points {
		r.Train(regression.DataPoint(p.Price, []float64{float64(p.Index)}))
	}
	if err := r.Run(); err != nil {
		return fallbackLine(points), false
	}

	r2 := r.R2
	if math.IsNaN(r2) || math.IsInf(r2, 0) || r2 < 0 {
		r2 = 0
	}
	if r2 > 1 {
		r2 = 1
	}

	slope := r.Coeff(1)
	intercept := r.Coeff(0)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return fallbackLine(points), false
	}

	return TrendLine{Slope: slope, Intercept: intercept, R2: r2}, true
}

// TrendlineFit fits a line and scores it with the cheaper
// 1 - meanRelativeDeviation measure used by the triangle recognizer. The
// score is clamped to [0, 1]; zero-price denominators fall back to a perfect
// score so degenerate windows never produce NaN.
func TrendlineFit(points []SwingPoint) (TrendLine, float64) {
	line, ok := FitWithR2(points)
	if !ok && len(points) < 2 {
		return line, 0
	}

	var devSum float64
	counted := 0
	for _, p := range points {
		if p.Price == 0 {
			continue
		}
		devSum += math.Abs(line.ValueAt(p.Index)-p.Price) / math.Abs(p.Price)
		counted++
	}
	if counted == 0 {
		return line, 1
	}

	quality := 1 - devSum/float64(counted)
	if quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}
	return line, quality
}

// fallbackLine is the deterministic degenerate-case result: a horizontal
// line through the mean price.
func fallbackLine(points []SwingPoint) TrendLine {
	if len(points) == 0 {
		return TrendLine{}
	}
	var total float64
	for _, p := range points {
		total += p.Price
	}
	return TrendLine{Slope: 0, Intercept: total / float64(len(points)), R2: 0}
}

// clamp01 bounds v to [0, 1], mapping NaN to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
