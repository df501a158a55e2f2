// Package types provides type definitions for structured data used throughout the self-healing system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ComparisonResult holds the outcome of comparing a baseline and current
// screenshot of one named UI surface. It is produced once per surface per run
// and never modified afterwards.
type ComparisonResult struct {
	Name              string  `json:"name"`
	BaselinePath      string  `json:"baseline_path"`
	CurrentPath       string  `json:"current_path"`
	DiffImagePath     string  `json:"diff_image_path"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DiffPixelCount    int     `json:"diff_pixel_count"`
	TotalPixels       int     `json:"total_pixels"`
	DiffPercentage    float64 `json:"diff_percentage"` // 0-100
	HasDifferences    bool    `json:"has_differences"`
	DimensionMismatch bool    `json:"dimension_mismatch"`
}
