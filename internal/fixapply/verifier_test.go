package fixapply

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
)

type stubRenderer struct {
	calls int
}

func (r *stubRenderer) Render(_ context.Context, _ string, outPath string) (string, error) {
	r.calls++
	if err := os.WriteFile(outPath, []byte("png"), 0o644); err != nil {
		return "", err
	}
	return outPath, nil
}

type stubDiffer struct {
	percentage float64
}

func (d *stubDiffer) Diff(_ context.Context, _, _, diffOutPath string) (*capture.DiffResult, error) {
	return &capture.DiffResult{
		DiffImagePath:  diffOutPath,
		DiffPercentage: d.percentage,
	}, nil
}

func TestAcceptanceRule(t *testing.T) {
	tests := []struct {
		name     string
		rule     AcceptanceRule
		before   float64
		after    float64
		accepted bool
	}{
		{"below threshold", AcceptanceRule{PassThreshold: 0.5}, 4.0, 0.2, true},
		{"above threshold", AcceptanceRule{PassThreshold: 0.5}, 4.0, 1.2, false},
		{"worse but below threshold", AcceptanceRule{PassThreshold: 0.5}, 0.2, 0.4, false},
		{"unchanged diff passes by default", AcceptanceRule{PassThreshold: 5.0}, 4.0, 4.0, true},
		{"improvement required and present", AcceptanceRule{PassThreshold: 5.0, RequireImprovement: true}, 4.0, 0.1, true},
		{"improvement required and absent", AcceptanceRule{PassThreshold: 5.0, RequireImprovement: true}, 4.0, 4.0, false},
		{"worse rejected regardless of strictness", AcceptanceRule{PassThreshold: 5.0, RequireImprovement: true}, 4.0, 4.5, false},
		{"already clean stays accepted", AcceptanceRule{PassThreshold: 0.5, RequireImprovement: true}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, reason := tt.rule.Accept(tt.before, tt.after)
			assert.Equal(t, tt.accepted, accepted)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestVerifier_AcceptsWhenDiffClears(t *testing.T) {
	renderer := &stubRenderer{}
	verifier := &Verifier{
		Renderer: renderer,
		Differ:   &stubDiffer{percentage: 0.05},
		Rule:     AcceptanceRule{PassThreshold: 0.5, RequireImprovement: true},
	}

	result, err := verifier.Verify(context.Background(), capture.Surface{Name: "home", URL: "http://localhost/"}, "baseline.png", 3.2, t.TempDir())

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.InDelta(t, 0.05, result.DiffPercentageAfter, 1e-9)
	assert.FileExists(t, result.ScreenshotPath)
	assert.Equal(t, 1, renderer.calls)
}

func TestVerifier_RejectsWorseningFixUnderDefaultRule(t *testing.T) {
	verifier := &Verifier{
		Renderer: &stubRenderer{},
		Differ:   &stubDiffer{percentage: 0.4},
		Rule:     AcceptanceRule{PassThreshold: 0.5},
	}

	result, err := verifier.Verify(context.Background(), capture.Surface{Name: "home"}, "baseline.png", 0.2, t.TempDir())

	require.NoError(t, err)
	assert.False(t, result.Accepted, "a fix that grows the diff must never be committed")
	assert.Contains(t, result.Reason, "worse")
}

func TestVerifier_RejectsWhenDiffRemains(t *testing.T) {
	verifier := &Verifier{
		Renderer: &stubRenderer{},
		Differ:   &stubDiffer{percentage: 2.8},
		Rule:     AcceptanceRule{PassThreshold: 0.5},
	}

	result, err := verifier.Verify(context.Background(), capture.Surface{Name: "home"}, "baseline.png", 3.2, t.TempDir())

	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Reason, "threshold")
}
