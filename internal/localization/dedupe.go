package localization

import (
	"sort"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Prioritize deduplicates and orders issues: grouped by classification,
// sorted by confidence then severity, near-duplicates dropped, and at most
// MaxPerClassification kept per group. The operation is deterministic and
// idempotent: running it twice yields the same kept issues in the same order.
func (l *Localizer) Prioritize(issues []*types.LocalizedIssue) []*types.LocalizedIssue {
	limit := l.MaxPerClassification
	if limit <= 0 {
		limit = defaultMaxPerClassification
	}

	// Group by classification, preserving first-seen group order.
	groups := make(map[types.Classification][]*types.LocalizedIssue)
	var order []types.Classification
	for _, issue := range issues {
		if _, seen := groups[issue.Classification]; !seen {
			order = append(order, issue.Classification)
		}
		groups[issue.Classification] = append(groups[issue.Classification], issue)
	}

	var kept []*types.LocalizedIssue
	for _, classification := range order {
		group := groups[classification]
		sort.SliceStable(group, func(i, j int) bool {
			ci, cj := issueConfidence(group[i]), issueConfidence(group[j])
			if ci != cj {
				return ci > cj
			}
			return group[i].Severity > group[j].Severity
		})

		var keptInGroup []*types.LocalizedIssue
		for _, issue := range group {
			if len(keptInGroup) >= limit {
				break
			}
			duplicate := false
			for _, existing := range keptInGroup {
				if similar(issue, existing) {
					duplicate = true
					break
				}
			}
			if !duplicate {
				keptInGroup = append(keptInGroup, issue)
			}
		}
		kept = append(kept, keptInGroup...)
	}

	return kept
}

// similar reports whether two issues of the same classification share at
// least 70% of their affected-element selectors or of their file:line code
// references. One large visual change must not explode into dozens of
// near-duplicate fix attempts.
func similar(a, b *types.LocalizedIssue) bool {
	if a.Classification != b.Classification {
		return false
	}
	if setOverlap(a.SelectorSet(), b.SelectorSet()) >= similarityThreshold {
		return true
	}
	return setOverlap(a.ReferenceSet(), b.ReferenceSet()) >= similarityThreshold
}

// setOverlap is |intersection| / min(|a|, |b|); zero when either is empty.
func setOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for key := range a {
		if b[key] {
			intersection++
		}
	}
	return float64(intersection) / float64(min(len(a), len(b)))
}
