package fixapply

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// AcceptanceRule decides whether a post-fix diff passes verification. A fix
// may never leave the surface worse than it was before the fix; that check is
// not configurable. Whether merely holding the line is enough is the
// configurable part: a fix that neither helps nor hurts may or may not be
// worth keeping.
type AcceptanceRule struct {
	// PassThreshold is the diff percentage (0-100) at or below which the
	// surface counts as matching its baseline.
	PassThreshold float64
	// RequireImprovement additionally rejects fixes that leave the diff
	// percentage unchanged; the post-fix diff must be strictly lower.
	RequireImprovement bool
}

// Accept applies the rule to the pre- and post-fix diff percentages.
func (r AcceptanceRule) Accept(before, after float64) (bool, string) {
	if after > r.PassThreshold {
		return false, fmt.Sprintf("diff %.3f%% still above threshold %.3f%%", after, r.PassThreshold)
	}
	if after > before {
		return false, fmt.Sprintf("diff %.3f%% worse than %.3f%% before the fix", after, before)
	}
	if r.RequireImprovement && after >= before && before > 0 {
		return false, fmt.Sprintf("diff %.3f%% did not improve on %.3f%%", after, before)
	}
	return true, fmt.Sprintf("diff %.3f%% within threshold %.3f%%", after, r.PassThreshold)
}

// Verifier re-renders a surface after a fix and re-diffs it against the
// baseline to judge whether the fix worked.
type Verifier struct {
	Renderer capture.Renderer
	Differ   capture.Differ
	Rule     AcceptanceRule
	Verbose  bool
}

// Verify renders the surface into outDir, diffs it against baselinePath, and
// applies the acceptance rule. diffBefore is the surface's diff percentage
// before the fix was applied.
func (v *Verifier) Verify(ctx context.Context, surface capture.Surface, baselinePath string, diffBefore float64, outDir string) (*types.VerificationResult, error) {
	screenshotPath := filepath.Join(outDir, fmt.Sprintf("%s_verify.png", surface.Name))
	if _, err := v.Renderer.Render(ctx, surface.URL, screenshotPath); err != nil {
		return nil, fmt.Errorf("verification render failed: %w", err)
	}

	diffPath := filepath.Join(outDir, fmt.Sprintf("%s_verify_diff.png", surface.Name))
	diff, err := v.Differ.Diff(ctx, baselinePath, screenshotPath, diffPath)
	if err != nil {
		return nil, fmt.Errorf("verification diff failed: %w", err)
	}

	accepted, reason := v.Rule.Accept(diffBefore, diff.DiffPercentage)
	if v.Verbose {
		fmt.Printf("[VERIFY] %s: %.3f%% -> %.3f%% (%s)\n", surface.Name, diffBefore, diff.DiffPercentage, reason)
	}

	return &types.VerificationResult{
		DiffPercentageAfter: diff.DiffPercentage,
		ScreenshotPath:      screenshotPath,
		DiffImagePath:       diff.DiffImagePath,
		Accepted:            accepted,
		Reason:              reason,
	}, nil
}
