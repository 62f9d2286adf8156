package patterns

import (
	"math"
)

// fallbackDiscount is applied to matches accepted only after tolerance
// relaxation.
const fallbackDiscount = 0.95

// scoreCandidate turns a candidate's raw geometric quality into the final
// bounded confidence: family adjustment, relaxation penalty, clamp to [0,1]
// and round to two decimals.
func scoreCandidate(cand *Candidate) float64 {
	conf := cand.ConfidenceRaw * typeAdjustment(cand.Type)
	if cand.Penalty > 0 {
		conf *= cand.Penalty
	}
	if cand.FallbackStage > 0 && cand.Penalty == 1.0 {
		conf *= fallbackDiscount
	}
	return round2(clamp01(conf))
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
