package patterns

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestFindSwingsStrict(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 2, 1, 2, 3, 4, 3, 2})

	swings := FindSwings(candles, 2, true)
	if len(swings) != 3 {
		t.Fatalf("expected 3 swings, got %d: %+v", len(swings), swings)
	}

	expected := []struct {
		index int
		price float64
		kind  SwingKind
	}{
		{2, 3, Peak},
		{4, 1, Valley},
		{7, 4, Peak},
	}
	for i, want := range expected {
		got := swings[i]
		if got.Index != want.index || got.Price != want.price || got.Kind != want.kind {
			t.Errorf("swing %d: got {%d %v %s}, want {%d %v %s}",
				i, got.Index, got.Price, got.Kind, want.index, want.price, want.kind)
		}
	}
}

func TestFindSwingsShortSeries(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 2})
	if swings := FindSwings(candles, 2, true); swings != nil {
		t.Errorf("expected nil for series shorter than 2*depth+1, got %+v", swings)
	}
	if swings := FindSwings(nil, 2, true); swings != nil {
		t.Errorf("expected nil for empty series, got %+v", swings)
	}
	if swings := FindSwings(candles, 0, true); swings != nil {
		t.Errorf("expected nil for depth 0, got %+v", swings)
	}
}

// A flat-topped peak ties with its twin, so strict mode rejects both bars
// while relaxed voting accepts them.
func TestFindSwingsRelaxedAdmitsPlateau(t *testing.T) {
	candles := candlesFromCloses([]float64{1, 2, 3, 4, 4, 3, 2, 1})

	if strict := FindSwings(candles, 3, true); len(strict) != 0 {
		t.Fatalf("strict mode should reject the tied plateau, got %+v", strict)
	}

	relaxed := FindSwings(candles, 3, false)
	if len(relaxed) != 2 {
		t.Fatalf("expected 2 relaxed pivots, got %d: %+v", len(relaxed), relaxed)
	}
	for _, s := range relaxed {
		if s.Kind != Peak {
			t.Errorf("pivot at %d: expected peak, got %s", s.Index, s.Kind)
		}
		if s.Index != 3 && s.Index != 4 {
			t.Errorf("unexpected pivot index %d", s.Index)
		}
	}
}

func TestFindSwingsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Property: deeper strict scans never find more pivots
	properties.Property("deeper strict scans never find more pivots", prop.ForAll(
		func(closes []float64) bool {
			candles := candlesFromCloses(closes)
			prev := len(FindSwings(candles, 2, true))
			for depth := 3; depth <= 6; depth++ {
				cur := len(FindSwings(candles, depth, true))
				if cur > prev {
					t.Logf("depth %d found %d pivots, depth %d found %d", depth, cur, depth-1, prev)
					return false
				}
				prev = cur
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(10, 100)),
	))

	// Property: pivots stay inside the comparable range and carry the close
	properties.Property("pivots stay inside the comparable range and carry the close", prop.ForAll(
		func(closes []float64, strict bool) bool {
			depth := 3
			candles := candlesFromCloses(closes)
			for _, s := range FindSwings(candles, depth, strict) {
				if s.Index < depth || s.Index >= len(candles)-depth {
					t.Logf("pivot index %d outside comparable range", s.Index)
					return false
				}
				if s.Price != candles[s.Index].Close {
					t.Logf("pivot price %v != close %v at %d", s.Price, candles[s.Index].Close, s.Index)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float64Range(10, 100)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
