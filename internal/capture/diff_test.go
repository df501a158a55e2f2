package capture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, w, h int, paint func(x, y int) color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, paint(x, y))
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func white(_, _ int) color.RGBA {
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

func TestPixelDiffer_IdenticalImages(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "a.png")
	current := filepath.Join(dir, "b.png")
	writeImage(t, baseline, 50, 50, white)
	writeImage(t, current, 50, 50, white)

	result, err := NewPixelDiffer().Diff(context.Background(), baseline, current, filepath.Join(dir, "diff.png"))

	require.NoError(t, err)
	assert.Zero(t, result.DiffPixelCount)
	assert.Zero(t, result.DiffPercentage)
	assert.False(t, result.DimensionMismatch)
	assert.Equal(t, 2500, result.TotalPixels)
	assert.FileExists(t, result.DiffImagePath)
}

func TestPixelDiffer_ChangedBlockCountedAndMarkedRed(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "a.png")
	current := filepath.Join(dir, "b.png")
	writeImage(t, baseline, 100, 100, white)
	writeImage(t, current, 100, 100, func(x, y int) color.RGBA {
		if x >= 10 && x < 30 && y >= 10 && y < 30 {
			return color.RGBA{B: 255, A: 255}
		}
		return white(x, y)
	})

	diffPath := filepath.Join(dir, "diff.png")
	result, err := NewPixelDiffer().Diff(context.Background(), baseline, current, diffPath)

	require.NoError(t, err)
	assert.Equal(t, 400, result.DiffPixelCount)
	assert.InDelta(t, 4.0, result.DiffPercentage, 1e-9)

	f, err := os.Open(diffPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)

	r, g, b, _ := img.At(15, 15).RGBA()
	assert.Equal(t, uint32(0xffff), r, "changed pixel painted red")
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestPixelDiffer_ToleranceAbsorbsAntiAliasing(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "a.png")
	current := filepath.Join(dir, "b.png")
	writeImage(t, baseline, 10, 10, func(_, _ int) color.RGBA {
		return color.RGBA{R: 200, G: 200, B: 200, A: 255}
	})
	writeImage(t, current, 10, 10, func(_, _ int) color.RGBA {
		return color.RGBA{R: 210, G: 210, B: 210, A: 255} // delta 10 < 0.1*255
	})

	result, err := NewPixelDiffer().Diff(context.Background(), baseline, current, "")

	require.NoError(t, err)
	assert.Zero(t, result.DiffPixelCount)
}

func TestPixelDiffer_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "a.png")
	current := filepath.Join(dir, "b.png")
	writeImage(t, baseline, 100, 100, white)
	writeImage(t, current, 120, 90, white)

	result, err := NewPixelDiffer().Diff(context.Background(), baseline, current, filepath.Join(dir, "diff.png"))

	require.NoError(t, err)
	assert.True(t, result.DimensionMismatch)
	assert.Equal(t, 100.0, result.DiffPercentage)
	assert.Equal(t, 120, result.Width)
	assert.Equal(t, 100, result.Height)
	assert.Empty(t, result.DiffImagePath, "no diff image across differing canvases")
}

func TestPixelDiffer_MissingFile(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "b.png")
	writeImage(t, current, 10, 10, white)

	_, err := NewPixelDiffer().Diff(context.Background(), filepath.Join(dir, "missing.png"), current, "")
	assert.Error(t, err)
}
