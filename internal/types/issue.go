package types

import "fmt"

// AffectedElement pairs a UI element with how much of the diff region it covers.
type AffectedElement struct {
	Element           UIElement `json:"element"`
	OverlapPercentage float64   `json:"overlap_percentage"` // 0-100
}

// LocalizedIssue is one diff region mapped to candidate source locations.
// Immutable after localization.
type LocalizedIssue struct {
	SurfaceName      string            `json:"surface_name"`
	Comparison       *ComparisonResult `json:"comparison"`
	Region           DiffRegion        `json:"region"`
	Classification   Classification    `json:"classification"`
	Severity         float64           `json:"severity"` // region area share of the canvas, 0-100
	AffectedElements []AffectedElement `json:"affected_elements,omitempty"`
	CodeReferences   []CodeReference   `json:"code_references,omitempty"` // deduplicated, confidence desc
	Summary          string            `json:"summary,omitempty"`         // optional external classification summary
}

// Signature derives the knowledge-base signature for the issue: classification
// plus primary selector plus top file. Line numbers are deliberately excluded
// since they shift between runs.
func (i *LocalizedIssue) Signature() string {
	selector := ""
	if len(i.AffectedElements) > 0 {
		selector = i.AffectedElements[0].Element.Selector
	}
	file := ""
	if len(i.CodeReferences) > 0 {
		file = i.CodeReferences[0].FilePath
	}
	return fmt.Sprintf("%s|%s|%s", i.Classification, selector, file)
}

// SelectorSet returns the set of affected element selectors.
func (i *LocalizedIssue) SelectorSet() map[string]bool {
	set := make(map[string]bool, len(i.AffectedElements))
	for _, ae := range i.AffectedElements {
		set[ae.Element.Selector] = true
	}
	return set
}

// ReferenceSet returns the set of file:line reference keys.
func (i *LocalizedIssue) ReferenceSet() map[string]bool {
	set := make(map[string]bool, len(i.CodeReferences))
	for _, ref := range i.CodeReferences {
		set[ref.Key()] = true
	}
	return set
}

func refKey(filePath string, lineNumber int) string {
	return fmt.Sprintf("%s:%d", filePath, lineNumber)
}
