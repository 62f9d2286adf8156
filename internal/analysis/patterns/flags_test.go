package patterns

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chartscan/internal/analysis"
	"chartscan/internal/models"
)

// bullFlagCloses builds 40 daily bars: a drifting base, an 8.1% pole over
// bars 10-20, a shallow counter-trend channel through bar 35 and an upside
// break that runs past the measured-move target.
func bullFlagCloses() []float64 {
	return closesThrough(
		[2]float64{0, 105},
		[2]float64{10, 100},
		[2]float64{20, 108.1},
		[2]float64{35, 103.6},
		[2]float64{39, 113.6},
	)
}

func TestScanBullFlag(t *testing.T) {
	eng := NewEngine(zerolog.Nop())
	candles := candlesFromCloses(bullFlagCloses())

	opts := DefaultOptions(models.Timeframe1Day)
	opts.Types = []Type{Flag}

	res := eng.Scan(candles, opts)
	if !res.OK {
		t.Fatalf("scan failed: %+v", res.Failure)
	}
	if res.Data == nil || len(res.Data.Patterns) != 1 {
		t.Fatalf("expected exactly one pattern, got %+v", res.Data)
	}

	p := res.Data.Patterns[0]
	if p.Type != Flag {
		t.Fatalf("expected flag, got %s", p.Type)
	}
	if p.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", p.Status)
	}
	// The pole is part of the pattern range.
	if p.StartIndex != 10 || p.EndIndex != 35 {
		t.Errorf("expected range [10, 35], got [%d, %d]", p.StartIndex, p.EndIndex)
	}
	// Height is the pole, not the channel spread.
	if math.Abs(p.Height-8.1) > 1e-9 {
		t.Errorf("expected height 8.1, got %v", p.Height)
	}
	if p.Confidence != 0.75 {
		t.Errorf("expected confidence 0.75, got %v", p.Confidence)
	}
	if p.Breakout == nil || p.Breakout.Index != 36 || p.Breakout.Direction != analysis.DirectionUp {
		t.Fatalf("expected up breakout at bar 36, got %+v", p.Breakout)
	}
	if math.Abs(p.TargetPrice-111.9) > 1e-6 {
		t.Errorf("expected measured-move target 111.9, got %v", p.TargetPrice)
	}
	if p.Aftermath == nil || p.Aftermath.Outcome != OutcomeTargetReached {
		t.Errorf("expected target_reached aftermath, got %+v", p.Aftermath)
	}
}

// The same shallow channel without the preceding mast is noise, not a flag.
func TestDetectFlagsRequiresPole(t *testing.T) {
	closes := closesThrough(
		[2]float64{0, 100},
		[2]float64{10, 100},
		[2]float64{39, 91.3},
	)
	sc := newScanContext(candlesFromCloses(closes), DefaultParams(models.Timeframe1Day), models.Timeframe1Day, nil)

	if cands := detectFlags(sc); len(cands) != 0 {
		t.Errorf("consolidation without a pole must be rejected, got %+v", cands)
	}
}

// pennantCandles builds an 8.2% pole followed by a consolidation whose highs
// fall and lows rise toward the midpoint, which only custom wick shapes can
// express.
func pennantCandles() []models.Candle {
	var candles []models.Candle
	bar := func(i int, close, high, low float64) models.Candle {
		return models.Candle{
			Timestamp: fixtureStart.Add(time.Duration(i) * 24 * time.Hour),
			Open:      close,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    1000,
		}
	}
	for i := 0; i <= 10; i++ {
		c := 100 + 0.82*float64(i)
		candles = append(candles, bar(i, c, c+0.2, c-0.2))
	}
	for i := 11; i <= 22; i++ {
		spread := 2.0 - 0.15*float64(i-10)
		candles = append(candles, bar(i, 108.2, 108.2+spread, 108.2-spread))
	}
	return candles
}

func TestDetectPennant(t *testing.T) {
	sc := newScanContext(pennantCandles(), DefaultParams(models.Timeframe1Day), models.Timeframe1Day, nil)

	cands := detectFlags(sc)
	if len(cands) != 1 {
		t.Fatalf("expected one candidate, got %+v", cands)
	}
	c := cands[0]
	if c.Type != Pennant {
		t.Fatalf("expected pennant, got %s", c.Type)
	}
	if c.StartIndex != 0 || c.EndIndex != 22 {
		t.Errorf("expected range [0, 22], got [%d, %d]", c.StartIndex, c.EndIndex)
	}
	if math.Abs(c.Height-8.2) > 1e-9 {
		t.Errorf("expected pole height 8.2, got %v", c.Height)
	}
	if c.Type.BreakoutDirection() != analysis.DirectionUp {
		t.Errorf("pennant after a bullish pole should break up, got %s", c.Type.BreakoutDirection())
	}
}
