package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// DiffResult is the outcome of comparing two screenshots.
type DiffResult struct {
	DiffImagePath     string  `json:"diff_image_path"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DiffPixelCount    int     `json:"diff_pixel_count"`
	TotalPixels       int     `json:"total_pixels"`
	DiffPercentage    float64 `json:"diff_percentage"` // 0-100
	DimensionMismatch bool    `json:"dimension_mismatch"`
}

// Differ compares a baseline and a current screenshot, writing a diff image
// with differing pixels marked, and returns pixel statistics.
type Differ interface {
	Diff(ctx context.Context, baselinePath, currentPath, diffOutPath string) (*DiffResult, error)
}

// PixelDiffer is the default per-pixel comparator. Differing locations are
// painted pure red over a faded copy of the baseline, which is the marker
// convention the segmenter's mask loader expects.
type PixelDiffer struct {
	// Threshold is the per-channel tolerance in [0,1]; channel deltas at or
	// below Threshold*255 are considered equal. Zero means exact matching.
	Threshold float64
}

// NewPixelDiffer creates a differ with a small anti-aliasing tolerance.
func NewPixelDiffer() *PixelDiffer {
	return &PixelDiffer{Threshold: 0.1}
}

// Diff compares the two images. Differing canvas dimensions make a pixel
// comparison undefined: the result reports a dimension mismatch with the
// diff percentage fixed at 100 and no diff image.
func (d *PixelDiffer) Diff(ctx context.Context, baselinePath, currentPath, diffOutPath string) (*DiffResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baseline, err := loadPNG(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline: %w", err)
	}
	current, err := loadPNG(currentPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load current: %w", err)
	}

	bw, bh := baseline.Bounds().Dx(), baseline.Bounds().Dy()
	cw, ch := current.Bounds().Dx(), current.Bounds().Dy()

	if bw != cw || bh != ch {
		w, h := max(bw, cw), max(bh, ch)
		return &DiffResult{
			Width:             w,
			Height:            h,
			DiffPixelCount:    w * h,
			TotalPixels:       w * h,
			DiffPercentage:    100,
			DimensionMismatch: true,
		}, nil
	}

	tolerance := uint32(d.Threshold * 255)
	diffImg := image.NewRGBA(image.Rect(0, 0, bw, bh))
	diffCount := 0

	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			br, bg, bb, _ := baseline.At(baseline.Bounds().Min.X+x, baseline.Bounds().Min.Y+y).RGBA()
			cr, cg, cb, _ := current.At(current.Bounds().Min.X+x, current.Bounds().Min.Y+y).RGBA()

			if channelDiffers(br, cr, tolerance) || channelDiffers(bg, cg, tolerance) || channelDiffers(bb, cb, tolerance) {
				diffCount++
				diffImg.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				// Faded grayscale of the baseline for visual context.
				gray := uint8(((br>>8)*30 + (bg>>8)*59 + (bb>>8)*11) / 100)
				faded := gray/3 + 170
				diffImg.Set(x, y, color.RGBA{R: faded, G: faded, B: faded, A: 255})
			}
		}
	}

	result := &DiffResult{
		Width:          bw,
		Height:         bh,
		DiffPixelCount: diffCount,
		TotalPixels:    bw * bh,
	}
	if result.TotalPixels > 0 {
		result.DiffPercentage = float64(diffCount) / float64(result.TotalPixels) * 100
	}

	if diffOutPath != "" {
		if err := writePNG(diffOutPath, diffImg); err != nil {
			return nil, err
		}
		result.DiffImagePath = diffOutPath
	}

	return result, nil
}

func channelDiffers(a, b, tolerance uint32) bool {
	a >>= 8
	b >>= 8
	if a > b {
		return a-b > tolerance
	}
	return b-a > tolerance
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create diff directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create diff image %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode diff image: %w", err)
	}
	return f.Close()
}
