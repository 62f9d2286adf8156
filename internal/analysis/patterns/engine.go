package patterns

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chartscan/internal/analysis"
	"chartscan/internal/analysis/indicators"
	cserrors "chartscan/internal/errors"
	"chartscan/internal/models"
)

const (
	defaultMinCompletion     = 0.4
	defaultRelevanceDays     = 30
	nearCompletionThreshold  = 0.8
	awaitingBreakoutProgress = 0.9
	atrPeriod                = 14
)

// Options controls a single scan. Zero-value parameter pointers mean "use the
// timeframe-adaptive default"; the resolved values are echoed back in
// EffectiveParams.
type Options struct {
	Timeframe models.Timeframe
	Types     []Type // empty means all types

	SwingDepth           *int
	TolerancePct         *float64
	MinBarsBetweenSwings *int
	StrictPivots         *bool

	RequireCurrentInPattern bool
	CurrentRelevanceDays    int // <=0 means 30

	IncludeForming   bool
	IncludeCompleted bool
	IncludeInvalid   bool

	MinCompletion float64 // <=0 means 0.4
}

// DefaultOptions returns the options a plain scan uses: all pattern types,
// completed and forming patterns, adaptive parameters.
func DefaultOptions(tf models.Timeframe) Options {
	return Options{
		Timeframe:        tf,
		IncludeForming:   true,
		IncludeCompleted: true,
		MinCompletion:    defaultMinCompletion,
	}
}

// EffectiveParams reports the fully resolved parameters of a run. Feeding
// these back as explicit options reproduces the run exactly.
type EffectiveParams struct {
	Timeframe models.Timeframe `json:"timeframe"`
	Params
	Types         []Type  `json:"types"`
	MinCompletion float64 `json:"min_completion"`
}

// Statistics summarizes a scan run.
type Statistics struct {
	CandlesExamined int            `json:"candles_examined"`
	SwingsDetected  int            `json:"swings_detected"`
	Candidates      int            `json:"candidates"`
	ByType          map[Type]int   `json:"by_type,omitempty"`
	ByStatus        map[Status]int `json:"by_status,omitempty"`
	DurationMs      float64        `json:"duration_ms"`
}

// Overlays carries the chart line segments of the detected patterns.
type Overlays struct {
	Ranges []analysis.Level `json:"ranges"`
}

// ScanData is the payload of a successful scan.
type ScanData struct {
	Patterns        []Pattern       `json:"patterns"`
	Overlays        Overlays        `json:"overlays"`
	Warnings        []string        `json:"warnings,omitempty"`
	Statistics      Statistics      `json:"statistics"`
	EffectiveParams EffectiveParams `json:"effective_params"`
}

// FailureType separates caller mistakes from engine faults.
type FailureType string

const (
	FailureUser     FailureType = "user"
	FailureInternal FailureType = "internal"
)

// Failure describes why a scan did not produce data.
type Failure struct {
	Type    FailureType `json:"type"`
	Message string      `json:"message"`
}

// Result is the envelope every scan returns. Failures are values, never
// panics escaping the engine.
type Result struct {
	OK      bool           `json:"ok"`
	Summary string         `json:"summary"`
	Data    *ScanData      `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
	Failure *Failure       `json:"failure,omitempty"`
}

// Engine runs pattern scans. It holds no mutable state; a single Engine is
// safe for concurrent use.
type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Scan detects chart patterns over an ordered candle series. Fewer than 20
// candles is not an error: it yields an ok result with no patterns.
func (e *Engine) Scan(candles []models.Candle, opts Options) (res Result) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("pattern scan panicked")
			res = Result{
				OK:      false,
				Summary: "internal error during pattern scan",
				Failure: &Failure{Type: FailureInternal, Message: fmt.Sprint(r)},
			}
		}
	}()

	if err := validateOptions(opts); err != nil {
		return Result{
			OK:      false,
			Summary: "invalid scan options",
			Failure: &Failure{Type: FailureUser, Message: err.Error()},
		}
	}

	params, types, minCompletion := resolve(opts)
	eff := EffectiveParams{
		Timeframe:     opts.Timeframe,
		Params:        params,
		Types:         types,
		MinCompletion: minCompletion,
	}

	if len(candles) < minCandles {
		return Result{
			OK:      true,
			Summary: fmt.Sprintf("insufficient data: %d candles, need at least %d", len(candles), minCandles),
			Data: &ScanData{
				Patterns:        []Pattern{},
				Statistics:      Statistics{CandlesExamined: len(candles)},
				EffectiveParams: eff,
			},
			Meta: scanMeta(opts.Timeframe, len(candles), started),
		}
	}

	var warnings []string
	atr, err := indicators.NewATR(atrPeriod).Calculate(candles)
	if err != nil {
		atr = nil
		warnings = append(warnings, "ATR unavailable, breakout buffers fall back to percentage")
	}

	sc := newScanContext(candles, params, opts.Timeframe, atr)

	wanted := make(map[Type]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	cands := e.collect(sc, wanted)
	for i := range cands {
		if cands[i].Breakout == nil {
			cands[i].Breakout = confirmBreakout(sc, &cands[i])
		}
		cands[i].ConfidenceRaw = scoreCandidate(&cands[i])
	}
	cands = Deduplicate(cands)

	patterns := make([]Pattern, 0, len(cands))
	for i := range cands {
		patterns = append(patterns, e.finalize(sc, &cands[i]))
	}

	if opts.IncludeForming {
		patterns = append(patterns, e.forming(sc, wanted, minCompletion, patterns)...)
	}

	patterns = filterPatterns(patterns, opts, candles)
	overlays := buildOverlays(patterns)
	stats := buildStatistics(sc, len(cands), patterns, started)

	for _, p := range patterns {
		e.log.Debug().
			Str("type", string(p.Type)).
			Str("status", string(p.Status)).
			Float64("confidence", p.Confidence).
			Int("start", p.StartIndex).
			Int("end", p.EndIndex).
			Msg("pattern detected")
	}

	return Result{
		OK:      true,
		Summary: fmt.Sprintf("%d pattern(s) detected across %d candles", len(patterns), len(candles)),
		Data: &ScanData{
			Patterns:        patterns,
			Overlays:        overlays,
			Warnings:        warnings,
			Statistics:      stats,
			EffectiveParams: eff,
		},
		Meta: scanMeta(opts.Timeframe, len(candles), started),
	}
}

func validateOptions(opts Options) error {
	if !opts.Timeframe.Valid() {
		return cserrors.Wrapf(cserrors.ErrInvalidTimeframe, "%q", opts.Timeframe)
	}
	for _, t := range opts.Types {
		if !t.Valid() {
			return cserrors.Wrapf(cserrors.ErrInvalidPatternType, "%q", t)
		}
	}
	if opts.SwingDepth != nil && *opts.SwingDepth < 1 {
		return cserrors.Wrapf(cserrors.ErrInvalidOptions, "swing depth %d", *opts.SwingDepth)
	}
	if opts.TolerancePct != nil && (*opts.TolerancePct <= 0 || *opts.TolerancePct >= 1) {
		return cserrors.Wrapf(cserrors.ErrInvalidOptions, "tolerance %v", *opts.TolerancePct)
	}
	if opts.MinBarsBetweenSwings != nil && *opts.MinBarsBetweenSwings < 1 {
		return cserrors.Wrapf(cserrors.ErrInvalidOptions, "min bars between swings %d", *opts.MinBarsBetweenSwings)
	}
	if opts.MinCompletion < 0 || opts.MinCompletion > 1 {
		return cserrors.Wrapf(cserrors.ErrInvalidOptions, "min completion %v", opts.MinCompletion)
	}
	return nil
}

// resolve merges explicit overrides over the timeframe-adaptive defaults.
func resolve(opts Options) (Params, []Type, float64) {
	p := DefaultParams(opts.Timeframe)
	if opts.SwingDepth != nil {
		p.SwingDepth = *opts.SwingDepth
	}
	if opts.TolerancePct != nil {
		p.TolerancePct = *opts.TolerancePct
	}
	if opts.MinBarsBetweenSwings != nil {
		p.MinBarsBetweenSwings = *opts.MinBarsBetweenSwings
	}
	if opts.StrictPivots != nil {
		p.StrictPivots = *opts.StrictPivots
	}

	types := opts.Types
	if len(types) == 0 {
		types = append([]Type(nil), AllTypes...)
	}

	minCompletion := opts.MinCompletion
	if minCompletion <= 0 {
		minCompletion = defaultMinCompletion
	}
	return p, types, minCompletion
}

// collect runs every recognizer whose output the type filter wants.
func (e *Engine) collect(sc *scanContext, wanted map[Type]bool) []Candidate {
	var out []Candidate
	keep := func(cands []Candidate) {
		for _, c := range cands {
			if wanted[c.Type] {
				out = append(out, c)
			}
		}
	}

	if wanted[DoubleTop] || wanted[DoubleBottom] {
		keep(detectDoubles(sc))
	}
	if wanted[HeadAndShoulders] || wanted[InverseHeadAndShoulders] {
		keep(detectHeadAndShoulders(sc))
	}
	if wanted[TriangleAscending] || wanted[TriangleDescending] || wanted[TriangleSymmetrical] {
		keep(detectTriangles(sc))
	}
	if wanted[RisingWedge] || wanted[FallingWedge] {
		keep(detectWedges(sc))
	}
	if wanted[Pennant] || wanted[Flag] {
		keep(detectFlags(sc))
	}
	if wanted[TripleTop] || wanted[TripleBottom] {
		keep(detectTriples(sc))
	}
	return out
}

// finalize turns a scored candidate into an output Pattern: status from the
// breakout state, aftermath for resolved patterns.
func (e *Engine) finalize(sc *scanContext, cand *Candidate) Pattern {
	p := Pattern{
		Type:       cand.Type,
		Direction:  cand.Type.BreakoutDirection(),
		Confidence: cand.ConfidenceRaw,
		StartIndex: cand.StartIndex,
		EndIndex:   cand.EndIndex,
		StartTime:  sc.candles[cand.StartIndex].Timestamp,
		EndTime:    sc.candles[cand.EndIndex].Timestamp,
		Pivots:     cand.Pivots,
		Neckline:   cand.Neckline,
		Upper:      cand.Upper,
		Lower:      cand.Lower,
		Height:     cand.Height,
		Breakout:   cand.Breakout,
		Fallback:   cand.FallbackStage > 0,
	}

	switch {
	case cand.Breakout != nil:
		p.Status = StatusCompleted
		p.Aftermath = analyzeAftermath(sc, cand)
		if p.Aftermath != nil {
			p.TargetPrice = p.Aftermath.TheoreticalTarget
		}
	case horizonClosed(sc, cand):
		p.Status = StatusInvalid
		p.Aftermath = analyzeAftermath(sc, cand)
	default:
		// Structure complete, confirmation window still open.
		completion := awaitingBreakoutProgress
		if len(cand.Upper) == 2 && len(cand.Lower) == 2 {
			completion = candidateCompletion(cand)
		}
		p.CompletionPct = round2(completion)
		if completion >= nearCompletionThreshold {
			p.Status = StatusNearCompletion
		} else {
			p.Status = StatusForming
		}
	}
	return p
}

// forming runs the completion scorer and appends in-progress patterns that do
// not collide with an already reported pattern of the same type.
func (e *Engine) forming(sc *scanContext, wanted map[Type]bool, minCompletion float64, existing []Pattern) []Pattern {
	var out []Pattern
	for _, fc := range detectForming(sc, minCompletion) {
		if !wanted[fc.Type] {
			continue
		}
		if overlapsExisting(fc.Candidate, existing) {
			continue
		}
		fc.ConfidenceRaw = scoreCandidate(&fc.Candidate)
		p := Pattern{
			Type:          fc.Type,
			Direction:     fc.Type.BreakoutDirection(),
			Confidence:    fc.ConfidenceRaw,
			StartIndex:    fc.StartIndex,
			EndIndex:      fc.EndIndex,
			StartTime:     sc.candles[fc.StartIndex].Timestamp,
			EndTime:       sc.candles[fc.EndIndex].Timestamp,
			Pivots:        fc.Pivots,
			Neckline:      fc.Neckline,
			Height:        fc.Height,
			CompletionPct: round2(fc.Completion),
		}
		if fc.Completion >= nearCompletionThreshold {
			p.Status = StatusNearCompletion
		} else {
			p.Status = StatusForming
		}
		out = append(out, p)
	}
	return out
}

func overlapsExisting(cand Candidate, existing []Pattern) bool {
	for _, p := range existing {
		if p.Type != cand.Type {
			continue
		}
		other := Candidate{StartIndex: p.StartIndex, EndIndex: p.EndIndex}
		if overlapRatio(cand, other) > dedupOverlapRatio {
			return true
		}
	}
	return false
}

// filterPatterns applies the status and recency filters.
func filterPatterns(patterns []Pattern, opts Options, candles []models.Candle) []Pattern {
	var cutoff time.Time
	if opts.RequireCurrentInPattern {
		days := opts.CurrentRelevanceDays
		if days <= 0 {
			days = defaultRelevanceDays
		}
		cutoff = candles[len(candles)-1].Timestamp.AddDate(0, 0, -days)
	}

	kept := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		switch p.Status {
		case StatusCompleted:
			if !opts.IncludeCompleted {
				continue
			}
		case StatusForming, StatusNearCompletion:
			if !opts.IncludeForming {
				continue
			}
		case StatusInvalid:
			if !opts.IncludeInvalid {
				continue
			}
		}
		if opts.RequireCurrentInPattern && p.EndTime.Before(cutoff) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// buildOverlays flattens pattern necklines and boundary lines into level
// segments for charting.
func buildOverlays(patterns []Pattern) Overlays {
	var levels []analysis.Level
	segment := func(pts []Point, lt analysis.LevelType, source Type) {
		if len(pts) != 2 {
			return
		}
		levels = append(levels, analysis.Level{
			Type:       lt,
			StartIndex: pts[0].X,
			EndIndex:   pts[1].X,
			StartPrice: pts[0].Y,
			EndPrice:   pts[1].Y,
			Source:     string(source),
		})
	}
	for _, p := range patterns {
		segment(p.Neckline, analysis.LevelNeckline, p.Type)
		segment(p.Upper, analysis.LevelResistance, p.Type)
		segment(p.Lower, analysis.LevelSupport, p.Type)
	}
	return Overlays{Ranges: levels}
}

func buildStatistics(sc *scanContext, candidates int, patterns []Pattern, started time.Time) Statistics {
	stats := Statistics{
		CandlesExamined: len(sc.candles),
		SwingsDetected:  len(sc.swings),
		Candidates:      candidates,
		ByType:          make(map[Type]int),
		ByStatus:        make(map[Status]int),
		DurationMs:      float64(time.Since(started).Microseconds()) / 1000,
	}
	for _, p := range patterns {
		stats.ByType[p.Type]++
		stats.ByStatus[p.Status]++
	}
	return stats
}

func scanMeta(tf models.Timeframe, candles int, started time.Time) map[string]any {
	return map[string]any{
		"timeframe":   string(tf),
		"candles":     candles,
		"duration_ms": float64(time.Since(started).Microseconds()) / 1000,
	}
}
