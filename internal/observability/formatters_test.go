package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

func TestPrintComparison(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintComparison(&types.ComparisonResult{
		Name:           "home",
		Width:          1280,
		Height:         800,
		DiffPixelCount: 400,
		TotalPixels:    1024000,
		DiffPercentage: 0.039,
	})

	out := buf.String()
	assert.Contains(t, out, "SCREENSHOT COMPARISON")
	assert.Contains(t, out, "home")
	assert.Contains(t, out, "1280x800")
}

func TestPrintComparison_NilIsQuiet(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintComparison(nil)
	assert.Empty(t, buf.String())
}

func TestPrintIssues(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintIssues([]*types.LocalizedIssue{{
		Classification: types.ClassColor,
		Region:         types.DiffRegion{X: 10, Y: 20, Width: 30, Height: 40},
		Severity:       1.5,
		AffectedElements: []types.AffectedElement{{
			Element: types.UIElement{Selector: "#header"},
		}},
		CodeReferences: []types.CodeReference{{FilePath: "styles.css", LineNumber: 5, Confidence: 0.8}},
	}})

	out := buf.String()
	assert.Contains(t, out, "LOCALIZED ISSUES")
	assert.Contains(t, out, "COLOR")
	assert.Contains(t, out, "#header")
	assert.Contains(t, out, "styles.css:5")
}

func TestPrintAttempts(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintAttempts([]types.FixApplicationRecord{{
		Candidate: types.FixCandidate{FilePath: "styles.css", LineNumber: 5, Origin: types.OriginHeuristic},
		Status:    types.StatusCommitted,
		Verification: &types.VerificationResult{
			DiffPercentageAfter: 0.01,
			Reason:              "diff 0.010% within threshold 0.500%",
		},
	}})

	out := buf.String()
	assert.Contains(t, out, "FIX ATTEMPTS")
	assert.Contains(t, out, "committed")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf)

	printer.PrintRunSummary(&types.RunReport{
		RunID: "abc123",
		Surfaces: []types.SurfaceReport{
			{Name: "home", Outcome: types.SurfaceFixed},
			{Name: "about", Outcome: types.SurfaceFixesFailed, Reason: "all_fixes_exhausted"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "all_fixes_exhausted")
	assert.Contains(t, out, "Fixes committed: 0")
}

func TestPrintRunSummary_NoSurfaces(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintRunSummary(&types.RunReport{})
	assert.Contains(t, buf.String(), "NO SURFACES CONFIGURED")
}
