// Package segmentation extracts contiguous affected-pixel regions from a
// binary difference mask.
package segmentation

import (
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Mask is a width×height binary difference mask, one byte per pixel.
type Mask struct {
	Width  int
	Height int
	Pixels []bool // row-major, len == Width*Height
}

// NewMask creates an empty mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pixels: make([]bool, width*height),
	}
}

// Set marks the pixel (x, y) as changed.
func (m *Mask) Set(x, y int) {
	if x >= 0 && x < m.Width && y >= 0 && y < m.Height {
		m.Pixels[y*m.Width+x] = true
	}
}

// Changed reports whether the pixel (x, y) is marked as changed.
func (m *Mask) Changed(x, y int) bool {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return false
	}
	return m.Pixels[y*m.Width+x]
}

// Count returns the number of changed pixels.
func (m *Mask) Count() int {
	count := 0
	for _, p := range m.Pixels {
		if p {
			count++
		}
	}
	return count
}

// MarkerFunc decides whether a diff-image pixel marks a changed location.
type MarkerFunc func(r, g, b, a uint8) bool

// RedMarker matches the red highlight pixels that comparators paint over
// differing locations.
func RedMarker(r, g, b, a uint8) bool {
	return a > 0 && r >= 180 && g <= 120 && b <= 120
}

// LoadMask reads a diff image from disk and converts it to a binary mask
// using RedMarker.
func LoadMask(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MaskError{Path: path, Message: "cannot open diff image", Cause: err}
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, &MaskError{Path: path, Message: "cannot decode diff image", Cause: err}
	}

	return MaskFromImage(img, RedMarker), nil
}

// MaskFromImage converts an image to a binary mask using the given marker.
func MaskFromImage(img image.Image, marker MarkerFunc) *Mask {
	bounds := img.Bounds()
	mask := NewMask(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if marker(uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)) {
				mask.Set(x-bounds.Min.X, y-bounds.Min.Y)
			}
		}
	}
	return mask
}

// CropRegion extracts the region from img with pad pixels of surrounding
// context, scaling the result down so that neither side exceeds maxSide.
// Used to build bounded context images for the generation capability.
func CropRegion(img image.Image, region types.DiffRegion, pad, maxSide int) image.Image {
	bounds := img.Bounds()
	x1 := max(bounds.Min.X, bounds.Min.X+region.X-pad)
	y1 := max(bounds.Min.Y, bounds.Min.Y+region.Y-pad)
	x2 := min(bounds.Max.X, bounds.Min.X+region.X+region.Width+pad)
	y2 := min(bounds.Max.Y, bounds.Min.Y+region.Y+region.Height+pad)
	if x2 <= x1 || y2 <= y1 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	crop := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
	draw.Copy(crop, image.Point{}, img, image.Rect(x1, y1, x2, y2), draw.Src, nil)

	w, h := crop.Bounds().Dx(), crop.Bounds().Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return crop
	}

	scale := float64(maxSide) / float64(max(w, h))
	scaled := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), crop, crop.Bounds(), draw.Src, nil)
	return scaled
}
