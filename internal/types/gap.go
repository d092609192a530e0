package types

import "fmt"

// GapEntry records coverage of one weighted category.
type GapEntry struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Covered  bool    `json:"covered"`
}

// GapReport is the gap analyzer's output: every weighted category with its
// coverage signal, sorted by weight descending, plus the highest-weight
// uncovered category as the interview target (nil when fully covered).
type GapReport struct {
	Entries   []GapEntry `json:"entries"`
	TargetGap *string    `json:"target_gap,omitempty"`
	// Degraded is set when category classification failed and coverage
	// fell back to "no coverage" for every category.
	Degraded bool `json:"degraded,omitempty"`
}

// Validate checks the weight-descending ordering invariant.
func (r *GapReport) Validate() error {
	for i := 1; i < len(r.Entries); i++ {
		if r.Entries[i].Weight > r.Entries[i-1].Weight {
			return fmt.Errorf("entries not sorted by weight descending at index %d", i)
		}
	}
	return nil
}

// MatchScore is the weight-proportional coverage of the report: the sum of
// weights of covered categories, in [0,1].
func (r *GapReport) MatchScore() float64 {
	score := 0.0
	for _, e := range r.Entries {
		if e.Covered {
			score += e.Weight
		}
	}
	return score
}

// UncoveredEntries returns the entries without supporting evidence, in
// report order. The outreach drafter uses these as unresolved ambiguities.
func (r *GapReport) UncoveredEntries() []GapEntry {
	var out []GapEntry
	for _, e := range r.Entries {
		if !e.Covered {
			out = append(out, e)
		}
	}
	return out
}
