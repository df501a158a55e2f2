package uimap

import (
	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

const (
	// baseConfidence is the initial confidence for every reverse-index hit.
	// Localization adjusts it later by overlap, file type, and modification
	// status.
	baseConfidence = 0.5

	// snippetContext is the number of lines captured around each reference.
	snippetContext = 2
)

// Mapper resolves probed elements to code references via the source index.
type Mapper struct {
	Index *sourceindex.Index
}

// NewMapper creates a Mapper over a built index.
func NewMapper(index *sourceindex.Index) *Mapper {
	return &Mapper{Index: index}
}

// MapElements converts raw probe results to UIElements with populated code
// references. An element with no resolvable id or class yields zero
// references; that is expected, not an error.
func (m *Mapper) MapElements(raw []RawElement) []types.UIElement {
	elements := make([]types.UIElement, 0, len(raw))
	for _, r := range raw {
		elements = append(elements, m.mapElement(r))
	}
	return elements
}

func (m *Mapper) mapElement(r RawElement) types.UIElement {
	element := types.UIElement{
		Selector: r.Selector,
		Attributes: types.ElementAttributes{
			Tag:     r.Tag,
			ID:      r.ID,
			Classes: r.Classes,
			Text:    r.Text,
		},
		BoundingBox: types.BoundingBox{
			X:      int(r.X),
			Y:      int(r.Y),
			Width:  int(r.Width),
			Height: int(r.Height),
		},
	}

	seen := make(map[string]bool)
	if r.ID != "" {
		for _, occ := range m.Index.IDOccurrences(r.ID) {
			element.CodeReferences = appendReference(element.CodeReferences, seen, occ)
		}
	}
	for _, class := range r.Classes {
		for _, occ := range m.Index.ClassOccurrences(class) {
			element.CodeReferences = appendReference(element.CodeReferences, seen, occ)
		}
	}

	return element
}

func appendReference(refs []types.CodeReference, seen map[string]bool, occ sourceindex.Occurrence) []types.CodeReference {
	ref := types.CodeReference{
		FilePath:       occ.Component.Path,
		LineNumber:     occ.Line,
		ContextSnippet: occ.Component.Snippet(occ.Line, snippetContext),
		Confidence:     baseConfidence,
	}
	if seen[ref.Key()] {
		return refs
	}
	seen[ref.Key()] = true
	return append(refs, ref)
}
