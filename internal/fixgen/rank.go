package fixgen

import (
	"sort"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Rank sorts candidates in place: confidence descending, ties broken by
// origin (heuristic before knowledge-base before generated, since heuristics
// are reproducible), then by location for determinism.
func Rank(candidates []types.FixCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if ra, rb := types.OriginRank(a.Origin), types.OriginRank(b.Origin); ra != rb {
			return ra < rb
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.LineNumber < b.LineNumber
	})
}
