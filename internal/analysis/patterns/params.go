package patterns

import (
	"chartscan/internal/models"
)

// Params holds the timeframe-adaptive scan parameters. The table below is the
// single source of defaults; every recognizer receives a Params value, never a
// lookup function.
type Params struct {
	SwingDepth           int     `json:"swing_depth"`
	MinBarsBetweenSwings int     `json:"min_bars_between_swings"`
	TolerancePct         float64 `json:"tolerance_pct"`
	ConvergenceFactor    float64 `json:"convergence_factor"`
	TriangleSlopeCoeff   float64 `json:"triangle_slope_coeff"`
	MinFit               float64 `json:"min_fit"`
	WindowSize           int     `json:"window_size"`
	PoleMinPct           float64 `json:"pole_min_pct"`
	StrictPivots         bool    `json:"strict_pivots"`
}

// defaultParams maps each timeframe label to its scan defaults. Shorter bars
// get smaller swing depth and looser equality tolerance.
var defaultParams = map[models.Timeframe]Params{
	models.Timeframe1Min:   {SwingDepth: 2, MinBarsBetweenSwings: 3, TolerancePct: 0.035, ConvergenceFactor: 0.75, TriangleSlopeCoeff: 1.6, MinFit: 0.55, WindowSize: 20, PoleMinPct: 0.06, StrictPivots: true},
	models.Timeframe5Min:   {SwingDepth: 2, MinBarsBetweenSwings: 3, TolerancePct: 0.032, ConvergenceFactor: 0.75, TriangleSlopeCoeff: 1.5, MinFit: 0.55, WindowSize: 20, PoleMinPct: 0.06, StrictPivots: true},
	models.Timeframe15Min:  {SwingDepth: 3, MinBarsBetweenSwings: 4, TolerancePct: 0.030, ConvergenceFactor: 0.80, TriangleSlopeCoeff: 1.4, MinFit: 0.60, WindowSize: 25, PoleMinPct: 0.06, StrictPivots: true},
	models.Timeframe30Min:  {SwingDepth: 3, MinBarsBetweenSwings: 4, TolerancePct: 0.028, ConvergenceFactor: 0.80, TriangleSlopeCoeff: 1.3, MinFit: 0.60, WindowSize: 25, PoleMinPct: 0.06, StrictPivots: true},
	models.Timeframe1Hour:  {SwingDepth: 3, MinBarsBetweenSwings: 5, TolerancePct: 0.025, ConvergenceFactor: 0.80, TriangleSlopeCoeff: 1.2, MinFit: 0.60, WindowSize: 30, PoleMinPct: 0.07, StrictPivots: true},
	models.Timeframe4Hour:  {SwingDepth: 4, MinBarsBetweenSwings: 5, TolerancePct: 0.022, ConvergenceFactor: 0.85, TriangleSlopeCoeff: 1.1, MinFit: 0.65, WindowSize: 35, PoleMinPct: 0.07, StrictPivots: true},
	models.Timeframe8Hour:  {SwingDepth: 4, MinBarsBetweenSwings: 6, TolerancePct: 0.021, ConvergenceFactor: 0.85, TriangleSlopeCoeff: 1.0, MinFit: 0.65, WindowSize: 35, PoleMinPct: 0.07, StrictPivots: true},
	models.Timeframe12Hour: {SwingDepth: 4, MinBarsBetweenSwings: 6, TolerancePct: 0.021, ConvergenceFactor: 0.85, TriangleSlopeCoeff: 1.0, MinFit: 0.65, WindowSize: 40, PoleMinPct: 0.08, StrictPivots: true},
	models.Timeframe1Day:   {SwingDepth: 5, MinBarsBetweenSwings: 6, TolerancePct: 0.020, ConvergenceFactor: 0.85, TriangleSlopeCoeff: 1.0, MinFit: 0.70, WindowSize: 40, PoleMinPct: 0.08, StrictPivots: true},
	models.Timeframe1Week:  {SwingDepth: 5, MinBarsBetweenSwings: 8, TolerancePct: 0.018, ConvergenceFactor: 0.90, TriangleSlopeCoeff: 0.9, MinFit: 0.70, WindowSize: 50, PoleMinPct: 0.08, StrictPivots: true},
	models.Timeframe1Month: {SwingDepth: 6, MinBarsBetweenSwings: 10, TolerancePct: 0.015, ConvergenceFactor: 0.90, TriangleSlopeCoeff: 0.8, MinFit: 0.70, WindowSize: 50, PoleMinPct: 0.08, StrictPivots: true},
}

// DefaultParams returns the adaptive defaults for a timeframe. Unknown
// timeframes fall back to the daily profile.
func DefaultParams(tf models.Timeframe) Params {
	if p, ok := defaultParams[tf]; ok {
		return p
	}
	return defaultParams[models.Timeframe1Day]
}

// relaxStage is one step of the ordered try-then-relax loop every recognizer
// runs: first strict, then progressively looser tolerances with a confidence
// penalty. Prominence applies only to head-and-shoulders head prominence.
type relaxStage struct {
	Tolerance  float64 // tolerance multiplier
	Prominence float64 // head-prominence multiplier
	Penalty    float64 // confidence multiplier for matches at this stage
}

var (
	doubleRelaxStages = []relaxStage{
		{Tolerance: 1.0, Prominence: 1.0, Penalty: 1.0},
		{Tolerance: 1.5, Prominence: 1.0, Penalty: 0.95},
		{Tolerance: 2.0, Prominence: 1.0, Penalty: 0.95},
	}
	hsRelaxStages = []relaxStage{
		{Tolerance: 1.0, Prominence: 1.0, Penalty: 1.0},
		{Tolerance: 1.6, Prominence: 0.6, Penalty: 0.95},
		{Tolerance: 2.0, Prominence: 0.4, Penalty: 0.95},
	}
	tripleRelaxStages = []relaxStage{
		{Tolerance: 1.0, Prominence: 1.0, Penalty: 1.0},
		{Tolerance: 1.25, Prominence: 1.0, Penalty: 0.95},
		{Tolerance: 2.0, Prominence: 1.0, Penalty: 0.95},
	}
)

// typeAdjustment is the per-family confidence multiplier applied by the
// scorer.
func typeAdjustment(t Type) float64 {
	switch t {
	case HeadAndShoulders, InverseHeadAndShoulders:
		return 1.10
	case TripleTop, TripleBottom:
		return 1.05
	case TriangleAscending, TriangleDescending, TriangleSymmetrical, Pennant, Flag:
		return 0.95
	default:
		return 1.0
	}
}

// minFormationBars is the minimum number of bars a forming pattern of each
// type must span before it is reported.
func minFormationBars(t Type) int {
	switch t {
	case DoubleTop, DoubleBottom:
		return 10
	case HeadAndShoulders, InverseHeadAndShoulders:
		return 15
	case TripleTop, TripleBottom:
		return 15
	case Pennant, Flag:
		return 8
	default: // triangles and wedges
		return 20
	}
}

const (
	// necklineBufferPct is the breakout buffer for neckline/trendline
	// patterns, applied to the boundary price.
	necklineBufferPct = 0.015
	// atrBufferMult sizes the ATR-based breakout buffer for the
	// regression-window wedge path.
	atrBufferMult = 0.5
	// breakoutHorizon is how many bars past the pattern end the
	// confirmation scan looks.
	breakoutHorizon = 30
	// doubleBreakoutLookahead bounds the neckline-cross search for
	// double tops/bottoms.
	doubleBreakoutLookahead = 20
	// minPatternHeightPct is the minimum pattern height relative to price.
	minPatternHeightPct = 0.03
	// dedupOverlapRatio is the range-overlap fraction above which two
	// same-type candidates collapse into one.
	dedupOverlapRatio = 0.7
	// minCandles is the smallest series the engine will scan; fewer yields
	// a well-formed empty result.
	minCandles = 20
)
