package localization

import (
	"fmt"
	"sort"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/segmentation"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

const (
	// defaultOverlapThreshold discards element/region pairs below 10%
	// overlap as noise.
	defaultOverlapThreshold = 0.10

	// defaultMaxPerClassification bounds kept issues per classification to
	// cap downstream fix-generation cost.
	defaultMaxPerClassification = 3

	// similarityThreshold is the selector / reference overlap above which
	// two issues of the same classification are considered duplicates.
	similarityThreshold = 0.70
)

// Localizer combines segmented diff regions with mapped UI elements to
// produce ranked, deduplicated issues.
type Localizer struct {
	Segmenter            *segmentation.Segmenter
	Index                *sourceindex.Index
	OverlapThreshold     float64
	MaxPerClassification int
	Verbose              bool
}

// NewLocalizer creates a Localizer with default thresholds.
func NewLocalizer(seg *segmentation.Segmenter, index *sourceindex.Index) *Localizer {
	return &Localizer{
		Segmenter:            seg,
		Index:                index,
		OverlapThreshold:     defaultOverlapThreshold,
		MaxPerClassification: defaultMaxPerClassification,
	}
}

// LocalizeComparison segments a comparison's diff mask and maps each region
// onto the given elements. A comparison without differences yields zero
// issues. A missing or unparsable diff image returns an error the caller
// should log and skip, never treat as fatal to the run.
func (l *Localizer) LocalizeComparison(cmp *types.ComparisonResult, elements []types.UIElement) ([]*types.LocalizedIssue, error) {
	if cmp == nil || !cmp.HasDifferences {
		return nil, nil
	}

	regions, err := l.Segmenter.SegmentComparison(cmp)
	if err != nil {
		return nil, fmt.Errorf("cannot segment %s: %w", cmp.Name, err)
	}

	issues := make([]*types.LocalizedIssue, 0, len(regions))
	for _, region := range regions {
		issues = append(issues, l.localizeRegion(cmp, region, elements))
	}

	if l.Verbose {
		fmt.Printf("[LOCALIZE] %s: %d regions -> %d issues\n", cmp.Name, len(regions), len(issues))
	}
	return issues, nil
}

// localizeRegion finds intersecting elements and ranks their code references.
func (l *Localizer) localizeRegion(cmp *types.ComparisonResult, region types.DiffRegion, elements []types.UIElement) *types.LocalizedIssue {
	issue := &types.LocalizedIssue{
		SurfaceName:    cmp.Name,
		Comparison:     cmp,
		Region:         region,
		Classification: region.Classification,
		Severity:       severity(region, cmp),
	}

	threshold := l.OverlapThreshold
	if threshold <= 0 {
		threshold = defaultOverlapThreshold
	}

	bestByRef := make(map[string]types.CodeReference)
	for _, element := range elements {
		overlap := overlapFraction(region, element.BoundingBox)
		if overlap < threshold {
			// Below the noise floor: never reported as affected.
			continue
		}
		issue.AffectedElements = append(issue.AffectedElements, types.AffectedElement{
			Element:           element,
			OverlapPercentage: overlap * 100,
		})

		for _, ref := range element.CodeReferences {
			scored := ref
			scored.Confidence = Score(ScoreInputs{
				Base:           ref.Confidence,
				Overlap:        overlap,
				FileKind:       l.fileKind(ref.FilePath),
				Modified:       l.fileModified(ref.FilePath),
				Classification: region.Classification,
			})
			if existing, ok := bestByRef[scored.Key()]; !ok || scored.Confidence > existing.Confidence {
				bestByRef[scored.Key()] = scored
			}
		}
	}

	// Highest-overlap elements first so the issue signature picks the most
	// affected selector.
	sort.SliceStable(issue.AffectedElements, func(i, j int) bool {
		return issue.AffectedElements[i].OverlapPercentage > issue.AffectedElements[j].OverlapPercentage
	})

	issue.CodeReferences = make([]types.CodeReference, 0, len(bestByRef))
	for _, ref := range bestByRef {
		issue.CodeReferences = append(issue.CodeReferences, ref)
	}
	sort.SliceStable(issue.CodeReferences, func(i, j int) bool {
		if issue.CodeReferences[i].Confidence != issue.CodeReferences[j].Confidence {
			return issue.CodeReferences[i].Confidence > issue.CodeReferences[j].Confidence
		}
		return issue.CodeReferences[i].Key() < issue.CodeReferences[j].Key()
	})

	return issue
}

func (l *Localizer) fileKind(path string) sourceindex.FileKind {
	if l.Index != nil {
		if component, ok := l.Index.Files[path]; ok {
			return component.Kind
		}
	}
	return sourceindex.KindOf(path)
}

func (l *Localizer) fileModified(path string) bool {
	if l.Index == nil {
		return false
	}
	component, ok := l.Index.Files[path]
	return ok && component.Modified
}

// overlapFraction computes intersection / min(regionArea, elementArea).
// Dividing by the smaller area means a large region containing a small
// element still credits that element highly.
func overlapFraction(region types.DiffRegion, box types.BoundingBox) float64 {
	intersection := box.IntersectionArea(region)
	if intersection == 0 {
		return 0
	}
	smaller := min(region.Area(), box.Area())
	if smaller <= 0 {
		return 0
	}
	return float64(intersection) / float64(smaller)
}

// severity is the region's share of the canvas, 0-100.
func severity(region types.DiffRegion, cmp *types.ComparisonResult) float64 {
	canvas := cmp.Width * cmp.Height
	if canvas <= 0 {
		return 0
	}
	return float64(region.Area()) / float64(canvas) * 100
}

// issueConfidence is the top reference confidence, used for prioritization.
func issueConfidence(issue *types.LocalizedIssue) float64 {
	if len(issue.CodeReferences) == 0 {
		return 0
	}
	return issue.CodeReferences[0].Confidence
}
