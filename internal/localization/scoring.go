// Package localization maps diff regions onto rendered elements and ranks
// the source locations most likely responsible.
package localization

import (
	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Affinity factors applied when a file kind matches (or does not match) the
// region classification. Style files are favored for COLOR/LAYOUT issues,
// markup and script files for TEXT/MISSING_ELEMENT.
const (
	affinityFavored = 1.2
	affinityOther   = 0.8
	modifiedBoost   = 1.5
	overlapFloor    = 0.5 // multiplier at zero overlap: (0.5 + 0.5*overlap)
)

// ScoreInputs carries everything the confidence score depends on. Keeping the
// score a pure function of these inputs makes it independently verifiable.
type ScoreInputs struct {
	Base           float64 // initial reference confidence
	Overlap        float64 // element/region overlap, 0..1
	FileKind       sourceindex.FileKind
	Modified       bool
	Classification types.Classification
}

// Score computes the confidence for a code reference. The result is clamped
// to [0,1]. This is a heuristic prior, not a proof; verified fix outcomes in
// the knowledge base are the real signal of correctness.
func Score(in ScoreInputs) float64 {
	confidence := in.Base
	confidence *= overlapFloor + (1-overlapFloor)*clamp01(in.Overlap)
	confidence *= affinity(in.FileKind, in.Classification)
	if in.Modified {
		confidence *= modifiedBoost
	}
	return clamp01(confidence)
}

func affinity(kind sourceindex.FileKind, classification types.Classification) float64 {
	switch classification {
	case types.ClassColor, types.ClassLayout:
		if kind == sourceindex.KindStyle {
			return affinityFavored
		}
		return affinityOther
	case types.ClassText, types.ClassMissingElement:
		if kind == sourceindex.KindMarkup || kind == sourceindex.KindScript {
			return affinityFavored
		}
		return affinityOther
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
