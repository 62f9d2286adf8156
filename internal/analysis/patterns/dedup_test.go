package patterns

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name  string
		input []Candidate
		want  []struct {
			start, end int
			typ        Type
		}
	}{
		{
			name: "overlapping same type keeps later end",
			input: []Candidate{
				{Type: DoubleTop, StartIndex: 0, EndIndex: 20, ConfidenceRaw: 0.9, Height: 5},
				{Type: DoubleTop, StartIndex: 5, EndIndex: 25, ConfidenceRaw: 0.5, Height: 4},
			},
			want: []struct {
				start, end int
				typ        Type
			}{{5, 25, DoubleTop}},
		},
		{
			name: "same range different types both kept",
			input: []Candidate{
				{Type: DoubleTop, StartIndex: 0, EndIndex: 20, ConfidenceRaw: 0.6},
				{Type: TripleTop, StartIndex: 0, EndIndex: 20, ConfidenceRaw: 0.6},
			},
			want: []struct {
				start, end int
				typ        Type
			}{{0, 20, DoubleTop}, {0, 20, TripleTop}},
		},
		{
			name: "disjoint same type both kept",
			input: []Candidate{
				{Type: Flag, StartIndex: 0, EndIndex: 10, ConfidenceRaw: 0.6},
				{Type: Flag, StartIndex: 30, EndIndex: 40, ConfidenceRaw: 0.6},
			},
			want: []struct {
				start, end int
				typ        Type
			}{{0, 10, Flag}, {30, 40, Flag}},
		},
		{
			name: "equal ends tie-break on confidence",
			input: []Candidate{
				{Type: RisingWedge, StartIndex: 0, EndIndex: 20, ConfidenceRaw: 0.5},
				{Type: RisingWedge, StartIndex: 2, EndIndex: 20, ConfidenceRaw: 0.9},
			},
			want: []struct {
				start, end int
				typ        Type
			}{{2, 20, RisingWedge}},
		},
		{
			name: "small overlap below threshold both kept",
			input: []Candidate{
				{Type: DoubleBottom, StartIndex: 0, EndIndex: 20, ConfidenceRaw: 0.6},
				{Type: DoubleBottom, StartIndex: 15, EndIndex: 40, ConfidenceRaw: 0.6},
			},
			want: []struct {
				start, end int
				typ        Type
			}{{0, 20, DoubleBottom}, {15, 40, DoubleBottom}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d candidates, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, w := range tt.want {
				if got[i].StartIndex != w.start || got[i].EndIndex != w.end || got[i].Type != w.typ {
					t.Errorf("candidate %d: got {%d %d %s}, want {%d %d %s}",
						i, got[i].StartIndex, got[i].EndIndex, got[i].Type, w.start, w.end, w.typ)
				}
			}
		})
	}
}

func TestOverlapRatio(t *testing.T) {
	a := Candidate{StartIndex: 0, EndIndex: 20}
	b := Candidate{StartIndex: 5, EndIndex: 25}
	// 16 shared bars over the shorter 21-bar range.
	want := 16.0 / 21.0
	if got := overlapRatio(a, b); got != want {
		t.Errorf("overlapRatio = %v, want %v", got, want)
	}
	if got := overlapRatio(b, a); got != want {
		t.Errorf("overlapRatio not symmetric: %v != %v", got, want)
	}

	c := Candidate{StartIndex: 30, EndIndex: 40}
	if got := overlapRatio(a, c); got != 0 {
		t.Errorf("disjoint ranges: got %v, want 0", got)
	}
}

func TestDeduplicateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	types := []Type{DoubleTop, TriangleSymmetrical, Flag}

	build := func(starts, lengths []int, confs []float64) []Candidate {
		cands := make([]Candidate, len(starts))
		for i := range starts {
			cands[i] = Candidate{
				Type:          types[i%len(types)],
				StartIndex:    starts[i],
				EndIndex:      starts[i] + lengths[i],
				ConfidenceRaw: confs[i],
				Height:        float64(lengths[i]),
			}
		}
		return cands
	}

	// Property: deduplication is idempotent
	properties.Property("deduplication is idempotent", prop.ForAll(
		func(starts, lengths []int, confs []float64) bool {
			once := Deduplicate(build(starts, lengths, confs))
			twice := Deduplicate(once)
			if len(once) != len(twice) {
				t.Logf("second pass changed count: %d -> %d", len(once), len(twice))
				return false
			}
			for i := range once {
				if once[i].StartIndex != twice[i].StartIndex ||
					once[i].EndIndex != twice[i].EndIndex ||
					once[i].Type != twice[i].Type {
					t.Logf("second pass changed candidate %d", i)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(9, gen.IntRange(0, 50)),
		gen.SliceOfN(9, gen.IntRange(1, 30)),
		gen.SliceOfN(9, gen.Float64Range(0, 1)),
	))

	// Property: survivors keep chronological order
	properties.Property("survivors keep chronological order", prop.ForAll(
		func(starts, lengths []int, confs []float64) bool {
			out := Deduplicate(build(starts, lengths, confs))
			for i := 1; i < len(out); i++ {
				if out[i].StartIndex < out[i-1].StartIndex {
					t.Logf("out of order at %d: %d after %d", i, out[i].StartIndex, out[i-1].StartIndex)
					return false
				}
			}
			return true
		},
		gen.SliceOfN(9, gen.IntRange(0, 50)),
		gen.SliceOfN(9, gen.IntRange(1, 30)),
		gen.SliceOfN(9, gen.Float64Range(0, 1)),
	))

	properties.TestingRun(t)
}
