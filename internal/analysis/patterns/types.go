// Package patterns implements classical chart pattern detection over OHLC
// candle series: swing-point extraction, trendline fitting, per-type
// recognizers, breakout confirmation, confidence scoring, deduplication and
// post-breakout aftermath analysis.
package patterns

import (
	"time"

	"chartscan/internal/analysis"
)

// Type identifies a chart pattern type.
type Type string

const (
	DoubleTop               Type = "double_top"
	DoubleBottom            Type = "double_bottom"
	HeadAndShoulders        Type = "head_and_shoulders"
	InverseHeadAndShoulders Type = "inverse_head_and_shoulders"
	TriangleAscending       Type = "triangle_ascending"
	TriangleDescending      Type = "triangle_descending"
	TriangleSymmetrical     Type = "triangle_symmetrical"
	RisingWedge             Type = "rising_wedge"
	FallingWedge            Type = "falling_wedge"
	Pennant                 Type = "pennant"
	Flag                    Type = "flag"
	TripleTop               Type = "triple_top"
	TripleBottom            Type = "triple_bottom"
)

// AllTypes lists every supported pattern type.
var AllTypes = []Type{
	DoubleTop, DoubleBottom,
	HeadAndShoulders, InverseHeadAndShoulders,
	TriangleAscending, TriangleDescending, TriangleSymmetrical,
	RisingWedge, FallingWedge,
	Pennant, Flag,
	TripleTop, TripleBottom,
}

// Valid reports whether t is a known pattern type.
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BreakoutDirection returns the direction a confirmed breakout must take for
// this pattern type. Bullish types break up, bearish types break down.
func (t Type) BreakoutDirection() analysis.Direction {
	switch t {
	case DoubleBottom, InverseHeadAndShoulders, TriangleAscending,
		TriangleSymmetrical, Pennant, Flag, FallingWedge, TripleBottom:
		return analysis.DirectionUp
	case DoubleTop, HeadAndShoulders, TriangleDescending, RisingWedge, TripleTop:
		return analysis.DirectionDown
	default:
		return analysis.DirectionNeutral
	}
}

// Status represents the lifecycle stage of a detected pattern.
type Status string

const (
	StatusForming        Status = "forming"
	StatusNearCompletion Status = "near_completion"
	StatusCompleted      Status = "completed"
	StatusInvalid        Status = "invalid"
)

// SwingKind distinguishes local highs from local lows.
type SwingKind string

const (
	Peak   SwingKind = "peak"
	Valley SwingKind = "valley"
)

// SwingPoint is a confirmed local extremum. Price is the candle close at the
// pivot index; wick extremes are used only to locate the pivot.
type SwingPoint struct {
	Index       int       `json:"index"`
	Price       float64   `json:"price"`
	Kind        SwingKind `json:"kind"`
	Time        time.Time `json:"time"`
	Provisional bool      `json:"provisional,omitempty"`
}

// Point is an (index, price) coordinate on the chart.
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// TrendLine is a fitted straight line in (index, price) space.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// ValueAt returns the line's price at bar index i.
func (l TrendLine) ValueAt(i int) float64 {
	return l.Intercept + l.Slope*float64(i)
}

// Breakout records the bar that confirmed a pattern.
type Breakout struct {
	Index     int                `json:"index"`
	Time      time.Time          `json:"time"`
	Direction analysis.Direction `json:"direction"`
}

// Outcome classifies what price did after a pattern's breakout.
type Outcome string

const (
	OutcomeTargetReached  Outcome = "target_reached"
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeFailure        Outcome = "failure"
	// OutcomeUnresolved marks a breakout on the final bar: confirmed, but
	// with no bars left to measure.
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeNoBreakout Outcome = "pattern did not break out"
)

// HorizonStats summarizes price action over a fixed number of bars after a
// breakout.
type HorizonStats struct {
	Bars        int     `json:"bars"`
	HighestHigh float64 `json:"highest_high"`
	LowestLow   float64 `json:"lowest_low"`
	ClosePct    float64 `json:"close_pct"`
}

// Aftermath is the backward-looking analysis of a completed pattern.
type Aftermath struct {
	BreakoutConfirmed bool           `json:"breakout_confirmed"`
	PriceMove         float64        `json:"price_move"`
	TheoreticalTarget float64        `json:"theoretical_target"`
	TargetReached     bool           `json:"target_reached"`
	Outcome           Outcome        `json:"outcome"`
	Horizons          []HorizonStats `json:"horizons,omitempty"`
}

// confirmRule selects how a candidate's breakout is confirmed.
type confirmRule int

const (
	// confirmClosePct: a close beyond the boundary by a percentage buffer.
	confirmClosePct confirmRule = iota
	// confirmBodyPct: a candle body extreme beyond the boundary by a
	// percentage buffer (pivot-based wedge path).
	confirmBodyPct
	// confirmCloseATR: a close beyond the boundary by ATR(14)*0.5
	// (regression-window wedge path).
	confirmCloseATR
)

// Candidate is a raw recognizer match, before confirmation, scoring and
// deduplication.
type Candidate struct {
	Type          Type
	ConfidenceRaw float64
	StartIndex    int
	EndIndex      int
	Pivots        []SwingPoint
	Neckline      []Point // two points when present
	Upper         []Point // upper boundary for triangles/wedges/flags
	Lower         []Point // lower boundary
	Height        float64 // pattern height in price units
	FallbackStage int     // 0 = strict match
	Penalty       float64 // relaxation confidence multiplier, 1.0 when strict
	rule          confirmRule
	Breakout      *Breakout
}

// necklineLine returns the candidate's neckline as a TrendLine. A single
// anchor yields a horizontal line.
func (c *Candidate) necklineLine() (TrendLine, bool) {
	if len(c.Neckline) == 0 {
		return TrendLine{}, false
	}
	a := c.Neckline[0]
	if len(c.Neckline) == 1 || c.Neckline[1].X == a.X {
		return TrendLine{Slope: 0, Intercept: a.Y}, true
	}
	b := c.Neckline[1]
	slope := (b.Y - a.Y) / float64(b.X-a.X)
	return TrendLine{Slope: slope, Intercept: a.Y - slope*float64(a.X)}, true
}

// lineFromPoints builds a TrendLine through two chart points.
func lineFromPoints(a, b Point) TrendLine {
	if b.X == a.X {
		return TrendLine{Slope: 0, Intercept: a.Y}
	}
	slope := (b.Y - a.Y) / float64(b.X-a.X)
	return TrendLine{Slope: slope, Intercept: a.Y - slope*float64(a.X)}
}

// Pattern is the final, enriched output of a scan.
type Pattern struct {
	Type          Type               `json:"type"`
	Direction     analysis.Direction `json:"direction"`
	Status        Status             `json:"status"`
	Confidence    float64            `json:"confidence"`
	StartIndex    int                `json:"start_index"`
	EndIndex      int                `json:"end_index"`
	StartTime     time.Time          `json:"start_time"`
	EndTime       time.Time          `json:"end_time"`
	Pivots        []SwingPoint       `json:"pivots"`
	Neckline      []Point            `json:"neckline,omitempty"`
	Upper         []Point            `json:"upper,omitempty"`
	Lower         []Point            `json:"lower,omitempty"`
	Height        float64            `json:"height"`
	TargetPrice   float64            `json:"target_price,omitempty"`
	CompletionPct float64            `json:"completion_pct,omitempty"`
	Breakout      *Breakout          `json:"breakout,omitempty"`
	Aftermath     *Aftermath         `json:"aftermath,omitempty"`
	Fallback      bool               `json:"fallback,omitempty"`
}
