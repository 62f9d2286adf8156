package patterns

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestScoreCandidate(t *testing.T) {
	tests := []struct {
		name string
		cand Candidate
		want float64
	}{
		{
			name: "strict double keeps its raw score",
			cand: Candidate{Type: DoubleTop, ConfidenceRaw: 0.80, Penalty: 1.0},
			want: 0.80,
		},
		{
			name: "stage penalty shaves a relaxed double",
			cand: Candidate{Type: DoubleTop, ConfidenceRaw: 0.80, FallbackStage: 1, Penalty: 0.95},
			want: 0.76,
		},
		{
			name: "fallback without a stage penalty still gets the discount",
			cand: Candidate{Type: DoubleTop, ConfidenceRaw: 0.80, FallbackStage: 1, Penalty: 1.0},
			want: 0.76,
		},
		{
			name: "head and shoulders family bonus",
			cand: Candidate{Type: HeadAndShoulders, ConfidenceRaw: 0.80, Penalty: 1.0},
			want: 0.88,
		},
		{
			name: "triangle family haircut",
			cand: Candidate{Type: TriangleAscending, ConfidenceRaw: 0.80, Penalty: 1.0},
			want: 0.76,
		},
		{
			name: "bonus never pushes past one",
			cand: Candidate{Type: HeadAndShoulders, ConfidenceRaw: 0.99, Penalty: 1.0},
			want: 1.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreCandidate(&tc.cand); got != tc.want {
				t.Errorf("scoreCandidate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScoreCandidateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("scores stay within [0, 1]", prop.ForAll(
		func(raw float64, typeIdx int, stage int) bool {
			cand := Candidate{
				Type:          AllTypes[typeIdx],
				ConfidenceRaw: raw,
				FallbackStage: stage,
				Penalty:       1.0,
			}
			got := scoreCandidate(&cand)
			return got >= 0 && got <= 1
		},
		gen.Float64Range(0, 1),
		gen.IntRange(0, len(AllTypes)-1),
		gen.IntRange(0, 2),
	))

	properties.Property("a relaxed match never outranks its strict twin", prop.ForAll(
		func(raw float64, typeIdx int) bool {
			strict := Candidate{Type: AllTypes[typeIdx], ConfidenceRaw: raw, Penalty: 1.0}
			penalized := Candidate{Type: AllTypes[typeIdx], ConfidenceRaw: raw, FallbackStage: 1, Penalty: 0.95}
			discounted := Candidate{Type: AllTypes[typeIdx], ConfidenceRaw: raw, FallbackStage: 2, Penalty: 1.0}
			base := scoreCandidate(&strict)
			return scoreCandidate(&penalized) <= base && scoreCandidate(&discounted) <= base
		},
		gen.Float64Range(0, 1),
		gen.IntRange(0, len(AllTypes)-1),
	))

	properties.TestingRun(t)
}
