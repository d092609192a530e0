// Package analyzer compares a scholarship's value model against a resume
// digest and ranks which weighted values lack supporting evidence.
package analyzer

import (
	"sort"

	"github.com/jamie/scholarship-tailor/internal/types"
)

// BuildGapReport computes coverage for every weighted category. Coverage is
// a boolean signal: does any bullet's associated categories intersect the
// category. Entries are sorted by weight descending, ties broken by the
// category's declaration order in primary_values, then by name for
// determinism. The target gap is the highest-weight uncovered category.
// This function is pure; classification happens upstream.
func BuildGapReport(model *types.ValueModel, digest *types.ResumeDigest) *types.GapReport {
	report := &types.GapReport{
		Entries: make([]types.GapEntry, 0, len(model.Weights)),
	}

	for category, weight := range model.Weights {
		report.Entries = append(report.Entries, types.GapEntry{
			Category: category,
			Weight:   weight,
			Covered:  digest != nil && digest.Covers(category),
		})
	}

	sortEntries(model, report.Entries)

	for i := range report.Entries {
		if !report.Entries[i].Covered {
			category := report.Entries[i].Category
			report.TargetGap = &category
			break
		}
	}

	return report
}

// DegradedGapReport is the fail-safe report used when category
// classification failed: every value is assumed to be a gap rather than
// silently skipping the interview stage.
func DegradedGapReport(model *types.ValueModel) *types.GapReport {
	report := BuildGapReport(model, nil)
	report.Degraded = true
	return report
}

func sortEntries(model *types.ValueModel, entries []types.GapEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		ri, rj := model.PrimaryRank(entries[i].Category), model.PrimaryRank(entries[j].Category)
		if ri != rj {
			return ri < rj
		}
		return entries[i].Category < entries[j].Category
	})
}

// CoveredSummary describes what currently dominates the resume: the covered
// categories in report order. The elicitor feeds this to its question prompt.
func CoveredSummary(report *types.GapReport) []string {
	var covered []string
	for _, e := range report.Entries {
		if e.Covered {
			covered = append(covered, e.Category)
		}
	}
	return covered
}
