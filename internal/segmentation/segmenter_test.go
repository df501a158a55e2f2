package segmentation

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

func TestSegment_SingleBlock(t *testing.T) {
	mask := NewMask(1000, 1000)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			mask.Set(x, y)
		}
	}

	regions := NewSegmenter().Segment(mask)

	require.Len(t, regions, 1)
	assert.Equal(t, 40, regions[0].X)
	assert.Equal(t, 40, regions[0].Y)
	assert.Equal(t, 20, regions[0].Width)
	assert.Equal(t, 20, regions[0].Height)
	assert.Equal(t, 400, regions[0].Area())
	assert.Equal(t, 400, regions[0].PixelCount)
}

func TestSegment_TwoSeparateBlocks_LargestFirst(t *testing.T) {
	mask := NewMask(200, 200)
	// Small 5x5 block.
	for y := 10; y < 15; y++ {
		for x := 10; x < 15; x++ {
			mask.Set(x, y)
		}
	}
	// Larger 30x10 block, disconnected from the first.
	for y := 100; y < 110; y++ {
		for x := 50; x < 80; x++ {
			mask.Set(x, y)
		}
	}

	regions := NewSegmenter().Segment(mask)

	require.Len(t, regions, 2)
	assert.Equal(t, 300, regions[0].Area(), "largest region should come first")
	assert.Equal(t, 25, regions[1].Area())
}

func TestSegment_DiagonalPixelsAreSeparateRegions(t *testing.T) {
	// 4-connectivity: diagonal neighbors do not join.
	mask := NewMask(10, 10)
	mask.Set(2, 2)
	mask.Set(3, 3)

	regions := NewSegmenter().Segment(mask)

	assert.Len(t, regions, 2)
}

func TestSegment_EveryChangedPixelCovered(t *testing.T) {
	mask := NewMask(50, 50)
	coords := [][2]int{{0, 0}, {49, 49}, {10, 40}, {25, 25}, {26, 25}}
	for _, c := range coords {
		mask.Set(c[0], c[1])
	}

	regions := NewSegmenter().Segment(mask)

	require.NotEmpty(t, regions)
	for _, c := range coords {
		covered := false
		for _, r := range regions {
			if r.Contains(c[0], c[1]) {
				covered = true
				break
			}
		}
		assert.True(t, covered, "pixel (%d,%d) must be inside some region", c[0], c[1])
	}
}

func TestSegment_MinPixelsFallback(t *testing.T) {
	// Every component is below MinPixels, but changed pixels exist: the
	// segmenter must fall back to one spanning region rather than dropping
	// the difference.
	mask := NewMask(100, 100)
	mask.Set(10, 10)
	mask.Set(90, 90)

	seg := &Segmenter{MinPixels: 5}
	regions := seg.Segment(mask)

	require.Len(t, regions, 1)
	assert.Equal(t, 10, regions[0].X)
	assert.Equal(t, 10, regions[0].Y)
	assert.Equal(t, 81, regions[0].Width)
	assert.Equal(t, 81, regions[0].Height)
	assert.Equal(t, 2, regions[0].PixelCount)
}

func TestSegment_EmptyMask(t *testing.T) {
	regions := NewSegmenter().Segment(NewMask(100, 100))
	assert.Empty(t, regions)
}

func TestSegmentComparison_DimensionMismatch(t *testing.T) {
	cmp := &types.ComparisonResult{
		Name:              "home",
		Width:             1024,
		Height:            768,
		DiffPercentage:    100,
		HasDifferences:    true,
		DimensionMismatch: true,
	}

	regions, err := NewSegmenter().SegmentComparison(cmp)

	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, 0, regions[0].X)
	assert.Equal(t, 0, regions[0].Y)
	assert.Equal(t, 1024, regions[0].Width)
	assert.Equal(t, 768, regions[0].Height)
}

func TestSegmentComparison_MissingDiffImage(t *testing.T) {
	cmp := &types.ComparisonResult{
		Name:          "home",
		DiffImagePath: filepath.Join(t.TempDir(), "does-not-exist.png"),
	}

	_, err := NewSegmenter().SegmentComparison(cmp)

	require.Error(t, err)
	var maskErr *MaskError
	assert.ErrorAs(t, err, &maskErr)
}

func TestLoadMask_RedMarkerPixels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diff.png")

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	// Mark a 4x4 red block.
	for y := 5; y < 9; y++ {
		for x := 5; x < 9; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	mask, err := LoadMask(path)
	require.NoError(t, err)
	assert.Equal(t, 16, mask.Count())
	assert.True(t, mask.Changed(5, 5))
	assert.False(t, mask.Changed(0, 0))
}

func TestClassify_Heuristics(t *testing.T) {
	tests := []struct {
		name    string
		region  types.DiffRegion
		canvasW int
		canvasH int
		want    types.Classification
	}{
		{
			name:    "solid small block is color",
			region:  types.DiffRegion{Width: 20, Height: 20, PixelCount: 400},
			canvasW: 1000, canvasH: 1000,
			want: types.ClassColor,
		},
		{
			name:    "thin strip is text",
			region:  types.DiffRegion{Width: 300, Height: 20, PixelCount: 3000},
			canvasW: 1000, canvasH: 1000,
			want: types.ClassText,
		},
		{
			name:    "large solid silhouette is missing element",
			region:  types.DiffRegion{Width: 200, Height: 150, PixelCount: 25000},
			canvasW: 1000, canvasH: 1000,
			want: types.ClassMissingElement,
		},
		{
			name:    "quarter of canvas is layout",
			region:  types.DiffRegion{Width: 500, Height: 500, PixelCount: 60000},
			canvasW: 1000, canvasH: 1000,
			want: types.ClassLayout,
		},
		{
			name:    "sparse scatter is layout",
			region:  types.DiffRegion{Width: 100, Height: 100, PixelCount: 500},
			canvasW: 1000, canvasH: 1000,
			want: types.ClassLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.region, tt.canvasW, tt.canvasH))
		})
	}
}

func TestCropRegion_PadsAndScales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	region := types.DiffRegion{X: 100, Y: 100, Width: 200, Height: 200}

	crop := CropRegion(img, region, 10, 0)
	assert.Equal(t, 220, crop.Bounds().Dx())
	assert.Equal(t, 220, crop.Bounds().Dy())

	scaled := CropRegion(img, region, 10, 110)
	assert.LessOrEqual(t, scaled.Bounds().Dx(), 110)
	assert.LessOrEqual(t, scaled.Bounds().Dy(), 110)
}
