package patterns

import (
	"sort"
)

// Deduplicate collapses same-type candidates whose bar ranges overlap by
// more than 70% of the shorter range. The survivor is the candidate with the
// later end index, tie-broken by higher confidence, then larger height. It
// runs globally across every recognizer's output, including both wedge
// strategies, and is idempotent.
func Deduplicate(cands []Candidate) []Candidate {
	if len(cands) < 2 {
		return cands
	}

	// Preference order: later end, higher confidence, larger height.
	ordered := append([]Candidate(nil), cands...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.EndIndex != b.EndIndex {
			return a.EndIndex > b.EndIndex
		}
		if a.ConfidenceRaw != b.ConfidenceRaw {
			return a.ConfidenceRaw > b.ConfidenceRaw
		}
		return a.Height > b.Height
	})

	var kept []Candidate
	for _, cand := range ordered {
		duplicate := false
		for i := range kept {
			if kept[i].Type != cand.Type {
				continue
			}
			if overlapRatio(kept[i], cand) > dedupOverlapRatio {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, cand)
		}
	}

	// Restore chronological order for stable downstream output.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].StartIndex != kept[j].StartIndex {
			return kept[i].StartIndex < kept[j].StartIndex
		}
		return kept[i].EndIndex < kept[j].EndIndex
	})
	return kept
}

// overlapRatio is the shared bar count divided by the shorter range's
// length.
func overlapRatio(a, b Candidate) float64 {
	start := a.StartIndex
	if b.StartIndex > start {
		start = b.StartIndex
	}
	end := a.EndIndex
	if b.EndIndex < end {
		end = b.EndIndex
	}
	overlap := end - start + 1
	if overlap <= 0 {
		return 0
	}

	lenA := a.EndIndex - a.StartIndex + 1
	lenB := b.EndIndex - b.StartIndex + 1
	shorter := lenA
	if lenB < shorter {
		shorter = lenB
	}
	if shorter <= 0 {
		return 0
	}
	return float64(overlap) / float64(shorter)
}
