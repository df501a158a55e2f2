package types

// BoundingBox is an element's rendered geometry in page coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the box area.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// IntersectionArea returns the overlapping area between the box and a diff region.
func (b BoundingBox) IntersectionArea(r DiffRegion) int {
	x1 := max(b.X, r.X)
	y1 := max(b.Y, r.Y)
	x2 := min(b.X+b.Width, r.X+r.Width)
	y2 := min(b.Y+b.Height, r.Y+r.Height)
	if x2 <= x1 || y2 <= y1 {
		return 0
	}
	return (x2 - x1) * (y2 - y1)
}

// ElementAttributes holds the identifying attributes probed from a rendered element.
type ElementAttributes struct {
	Tag     string   `json:"tag"`
	ID      string   `json:"id,omitempty"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text,omitempty"` // visible text, truncated
}

// CodeReference points at a source location believed to produce a UI element.
type CodeReference struct {
	FilePath       string  `json:"file_path"`
	LineNumber     int     `json:"line_number"` // 1-based
	ContextSnippet string  `json:"context_snippet,omitempty"`
	Confidence     float64 `json:"confidence"` // [0,1]
}

// Key returns the file:line identity used for deduplication.
func (c CodeReference) Key() string {
	return refKey(c.FilePath, c.LineNumber)
}

// UIElement is one rendered element with its resolved code references.
// Built fresh each run; never persisted.
type UIElement struct {
	Selector       string            `json:"selector"`
	Attributes     ElementAttributes `json:"attributes"`
	BoundingBox    BoundingBox       `json:"bounding_box"`
	CodeReferences []CodeReference   `json:"code_references,omitempty"`
}
