package patterns

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"chartscan/internal/analysis"
	"chartscan/internal/models"
)

// hsCloses builds 50 daily bars: shoulders at 100 (bars 8 and 40), a head at
// 106 (bar 24), a flat neckline at 94 and a decline through it after the
// right shoulder.
func hsCloses() []float64 {
	return closesThrough(
		[2]float64{0, 94},
		[2]float64{8, 100},
		[2]float64{16, 94},
		[2]float64{24, 106},
		[2]float64{32, 94},
		[2]float64{40, 100},
		[2]float64{49, 87.4},
	)
}

func TestScanHeadAndShoulders(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	candles := candlesFromCloses(hsCloses())

	opts := DefaultOptions(models.Timeframe1Day)
	opts.Types = []Type{HeadAndShoulders}

	res := eng.Scan(candles, opts)
	if !res.OK {
		t.Fatalf("scan failed: %+v", res.Failure)
	}
	if res.Data == nil || len(res.Data.Patterns) != 1 {
		t.Fatalf("expected exactly one pattern, got %+v", res.Data)
	}

	p := res.Data.Patterns[0]
	if p.Type != HeadAndShoulders {
		t.Fatalf("expected head_and_shoulders, got %s", p.Type)
	}
	if p.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", p.Status)
	}
	if p.StartIndex != 8 || p.EndIndex != 40 {
		t.Errorf("expected range [8, 40], got [%d, %d]", p.StartIndex, p.EndIndex)
	}
	if len(p.Pivots) != 5 {
		t.Fatalf("expected five pivots, got %d", len(p.Pivots))
	}
	if p.Pivots[2].Index != 24 || math.Abs(p.Pivots[2].Price-106) > 1e-9 {
		t.Errorf("expected head at bar 24 price 106, got %+v", p.Pivots[2])
	}
	if math.Abs(p.Height-12) > 1e-9 {
		t.Errorf("expected height 12, got %v", p.Height)
	}
	if p.Fallback {
		t.Error("strict-tolerance match must not carry the fallback mark")
	}
	if p.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 for the ideal geometry, got %v", p.Confidence)
	}
	if p.Breakout == nil {
		t.Fatal("expected a confirmed breakout")
	}
	if p.Breakout.Index != 46 || p.Breakout.Direction != analysis.DirectionDown {
		t.Errorf("expected down breakout at bar 46, got %+v", p.Breakout)
	}
	if math.Abs(p.TargetPrice-82) > 1e-9 {
		t.Errorf("expected measured-move target 82, got %v", p.TargetPrice)
	}

	am := p.Aftermath
	if am == nil {
		t.Fatal("completed pattern must carry aftermath")
	}
	if am.TargetReached {
		t.Error("price never fell to 82, target should not be reached")
	}
	// Best favorable excursion: 91.6 down to a low of 87.2.
	if am.PriceMove != 4.8 {
		t.Errorf("expected price move 4.8%%, got %v", am.PriceMove)
	}
	if am.Outcome != OutcomePartialSuccess {
		t.Errorf("expected partial_success outcome, got %s", am.Outcome)
	}
}

func TestScanInverseHeadAndShoulders(t *testing.T) {
	eng := NewEngine(zerolog.Nop())

	// Mirror image of the bearish fixture: valleys at 100... becomes
	// shoulders at 100, head at 94, neckline at 106.
	closes := hsCloses()
	for i := range closes {
		closes[i] = 200 - closes[i]
	}
	candles := candlesFromCloses(closes)

	opts := DefaultOptions(models.Timeframe1Day)
	opts.Types = []Type{InverseHeadAndShoulders}

	res := eng.Scan(candles, opts)
	if !res.OK {
		t.Fatalf("scan failed: %+v", res.Failure)
	}
	if res.Data == nil || len(res.Data.Patterns) != 1 {
		t.Fatalf("expected exactly one pattern, got %+v", res.Data)
	}

	p := res.Data.Patterns[0]
	if p.Type != InverseHeadAndShoulders {
		t.Fatalf("expected inverse_head_and_shoulders, got %s", p.Type)
	}
	if p.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", p.Status)
	}
	if p.Direction != analysis.DirectionUp {
		t.Errorf("expected up direction, got %s", p.Direction)
	}
	if p.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", p.Confidence)
	}
	if p.Breakout == nil || p.Breakout.Index != 46 || p.Breakout.Direction != analysis.DirectionUp {
		t.Fatalf("expected up breakout at bar 46, got %+v", p.Breakout)
	}
	if math.Abs(p.TargetPrice-118) > 1e-9 {
		t.Errorf("expected measured-move target 118, got %v", p.TargetPrice)
	}
	if p.Aftermath == nil || p.Aftermath.Outcome != OutcomePartialSuccess {
		t.Errorf("expected partial_success aftermath, got %+v", p.Aftermath)
	}
}

// Shoulders 2.5% apart miss the strict tolerance but sit inside the 1.6x
// relaxed stage, so the match is tagged as a fallback and its confidence is
// cut by the stage penalty.
func TestScanHeadAndShouldersRelaxed(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	candles := candlesFromCloses(closesThrough(
		[2]float64{0, 94},
		[2]float64{8, 100},
		[2]float64{16, 94},
		[2]float64{24, 106},
		[2]float64{32, 94},
		[2]float64{40, 97.5},
		[2]float64{49, 84.9},
	))

	opts := DefaultOptions(models.Timeframe1Day)
	opts.Types = []Type{HeadAndShoulders}

	res := eng.Scan(candles, opts)
	if !res.OK {
		t.Fatalf("scan failed: %+v", res.Failure)
	}
	if res.Data == nil || len(res.Data.Patterns) != 1 {
		t.Fatalf("expected exactly one pattern, got %+v", res.Data)
	}

	p := res.Data.Patterns[0]
	if !p.Fallback {
		t.Error("relaxed-stage match must carry the fallback mark")
	}
	if p.Confidence != 0.84 {
		t.Errorf("expected penalized confidence 0.84, got %v", p.Confidence)
	}
	if p.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", p.Status)
	}
	if p.Breakout == nil || p.Breakout.Index != 44 {
		t.Fatalf("expected breakout at bar 44, got %+v", p.Breakout)
	}
}
