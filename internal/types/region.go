package types

// Classification tags the visual nature of a diff region.
type Classification string

const (
	ClassColor          Classification = "COLOR"
	ClassLayout         Classification = "LAYOUT"
	ClassText           Classification = "TEXT"
	ClassMissingElement Classification = "MISSING_ELEMENT"
	ClassUnknown        Classification = "UNKNOWN"
)

// DiffRegion is one contiguous block of changed pixels, represented by its
// bounding box in current-image coordinates.
type DiffRegion struct {
	X              int            `json:"x"`
	Y              int            `json:"y"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	PixelCount     int            `json:"pixel_count"`
	Classification Classification `json:"classification"`
}

// Area returns the bounding-box area of the region.
func (r DiffRegion) Area() int {
	return r.Width * r.Height
}

// Contains reports whether the pixel (x, y) falls inside the bounding box.
func (r DiffRegion) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}
