package segmentation

import (
	"sort"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Segmenter extracts diff regions from binary masks.
type Segmenter struct {
	// MinPixels drops regions with fewer changed pixels as noise. Zero keeps
	// every region.
	MinPixels int
}

// NewSegmenter creates a Segmenter with default settings.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// SegmentComparison loads the comparison's diff image and segments it.
// A dimension mismatch between baseline and current canvases makes region
// extraction undefined, so the entire canvas is reported as one
// full-coverage region instead.
func (s *Segmenter) SegmentComparison(cmp *types.ComparisonResult) ([]types.DiffRegion, error) {
	if cmp.DimensionMismatch {
		return []types.DiffRegion{{
			X:              0,
			Y:              0,
			Width:          cmp.Width,
			Height:         cmp.Height,
			PixelCount:     cmp.Width * cmp.Height,
			Classification: types.ClassLayout,
		}}, nil
	}

	mask, err := LoadMask(cmp.DiffImagePath)
	if err != nil {
		return nil, err
	}
	return s.Segment(mask), nil
}

// Segment runs a 4-connected flood fill over changed pixels and returns the
// bounding box of each connected component, largest area first. If the mask
// has changed pixels but the fill somehow yields no regions, a single region
// spanning the bounding box of all changed pixels is returned so that no
// detected difference is ever silently dropped.
func (s *Segmenter) Segment(mask *Mask) []types.DiffRegion {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil
	}

	visited := make([]bool, len(mask.Pixels))
	var regions []types.DiffRegion
	changedTotal := 0

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			idx := y*mask.Width + x
			if !mask.Pixels[idx] {
				continue
			}
			changedTotal++
			if visited[idx] {
				continue
			}
			region := s.fill(mask, visited, x, y)
			if region.PixelCount >= s.MinPixels {
				region.Classification = classify(region, mask.Width, mask.Height)
				regions = append(regions, region)
			}
		}
	}

	if changedTotal > 0 && len(regions) == 0 {
		fallback := boundingBoxOfAll(mask)
		fallback.Classification = classify(fallback, mask.Width, mask.Height)
		regions = []types.DiffRegion{fallback}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Area() != regions[j].Area() {
			return regions[i].Area() > regions[j].Area()
		}
		return regions[i].PixelCount > regions[j].PixelCount
	})

	return regions
}

// fill expands one connected component from a seed pixel using an explicit
// stack; masks can be multi-megapixel, so recursion is not an option.
func (s *Segmenter) fill(mask *Mask, visited []bool, seedX, seedY int) types.DiffRegion {
	minX, minY := seedX, seedY
	maxX, maxY := seedX, seedY
	count := 0

	stack := make([][2]int, 0, 64)
	stack = append(stack, [2]int{seedX, seedY})
	visited[seedY*mask.Width+seedX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p[0], p[1]
		count++

		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}

		neighbors := [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}}
		for _, n := range neighbors {
			nx, ny := n[0], n[1]
			if nx < 0 || nx >= mask.Width || ny < 0 || ny >= mask.Height {
				continue
			}
			idx := ny*mask.Width + nx
			if mask.Pixels[idx] && !visited[idx] {
				visited[idx] = true
				stack = append(stack, [2]int{nx, ny})
			}
		}
	}

	return types.DiffRegion{
		X:          minX,
		Y:          minY,
		Width:      maxX - minX + 1,
		Height:     maxY - minY + 1,
		PixelCount: count,
	}
}

// boundingBoxOfAll returns a single region spanning every changed pixel.
func boundingBoxOfAll(mask *Mask) types.DiffRegion {
	minX, minY := mask.Width, mask.Height
	maxX, maxY := -1, -1
	count := 0
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if !mask.Changed(x, y) {
				continue
			}
			count++
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return types.DiffRegion{}
	}
	return types.DiffRegion{
		X:          minX,
		Y:          minY,
		Width:      maxX - minX + 1,
		Height:     maxY - minY + 1,
		PixelCount: count,
	}
}

// classify assigns a coarse classification from region geometry. It is a
// heuristic prior; the generation capability may refine it later.
func classify(region types.DiffRegion, canvasW, canvasH int) types.Classification {
	area := region.Area()
	if area <= 0 {
		return types.ClassUnknown
	}
	canvasArea := canvasW * canvasH
	density := float64(region.PixelCount) / float64(area)
	aspect := float64(region.Width) / float64(max(region.Height, 1))

	switch {
	case canvasArea > 0 && area*4 >= canvasArea:
		// A quarter of the canvas or more changed: structural shift.
		return types.ClassLayout
	case aspect >= 5 && region.Height <= 40:
		// Long thin strip: a line of text changed.
		return types.ClassText
	case density >= 0.6 && area >= 10000:
		// Large solid silhouette: an element appeared or disappeared.
		return types.ClassMissingElement
	case density >= 0.85:
		// Small, uniformly changed block: a color swap.
		return types.ClassColor
	case density < 0.2:
		// Sparse scatter across a wide box: content moved.
		return types.ClassLayout
	default:
		return types.ClassUnknown
	}
}
