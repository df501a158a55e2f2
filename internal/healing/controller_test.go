package healing

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/fixapply"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/knowledge"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/uimap"
)

const regressedCSS = `#header {
  background-color: #ff0000;
  padding: 10px;
}
`

const goodCSS = `#header {
  background-color: #336699;
  padding: 10px;
}
`

// fakeRenderer writes a small valid screenshot wherever asked.
type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, _ string, outPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", err
	}
	return outPath, f.Close()
}

// sourceDiffer simulates the visual comparison by inspecting the source tree:
// while the regression marker is present in the stylesheet, it reports a red
// 20x20 region; once reverted, it reports a clean page.
type sourceDiffer struct {
	stylesheet string
	marker     string
}

func (d *sourceDiffer) Diff(_ context.Context, _, _, diffOutPath string) (*capture.DiffResult, error) {
	content, err := os.ReadFile(d.stylesheet)
	if err != nil {
		return nil, err
	}
	regressed := strings.Contains(string(content), d.marker)

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	result := &capture.DiffResult{Width: 100, Height: 100, TotalPixels: 10000}
	if regressed {
		for y := 10; y < 30; y++ {
			for x := 10; x < 30; x++ {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			}
		}
		result.DiffPixelCount = 400
		result.DiffPercentage = 4.0
	}

	if diffOutPath != "" {
		if err := os.MkdirAll(filepath.Dir(diffOutPath), 0o755); err != nil {
			return nil, err
		}
		f, err := os.Create(diffOutPath)
		if err != nil {
			return nil, err
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		result.DiffImagePath = diffOutPath
	}
	return result, nil
}

type fakeElements struct{}

func (fakeElements) Elements(_ context.Context, _ string) ([]uimap.RawElement, error) {
	return []uimap.RawElement{{
		Selector: "#header",
		Tag:      "div",
		ID:       "header",
		X:        0, Y: 0, Width: 100, Height: 50,
	}}, nil
}

// newController assembles a controller over temp trees. currentCSS is the
// stylesheet content the run starts from.
func newController(t *testing.T, currentCSS string) (*Controller, string, *knowledge.MemoryStore) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	baselineSrc := filepath.Join(root, "baseline-src")
	baselines := filepath.Join(root, "baselines")
	for _, dir := range []string{src, baselineSrc, baselines} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(src, "styles.css"), []byte(currentCSS), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(baselineSrc, "styles.css"), []byte(goodCSS), 0o644))

	_, err := fakeRenderer{}.Render(context.Background(), "", filepath.Join(baselines, "home.png"))
	require.NoError(t, err)

	store := knowledge.NewMemoryStore()
	controller := &Controller{
		Options: Options{
			Surfaces:           []capture.Surface{{Name: "home", URL: "http://localhost/"}},
			BaselineDir:        baselines,
			WorkDir:            filepath.Join(root, "work"),
			SourceRoot:         src,
			BaselineSourceRoot: baselineSrc,
			DiffThreshold:      0.5,
			Acceptance:         fixapply.AcceptanceRule{PassThreshold: 0.5, RequireImprovement: true},
			FixEnabled:         true,
		},
		Renderer:  fakeRenderer{},
		Differ:    &sourceDiffer{stylesheet: filepath.Join(src, "styles.css"), marker: "#ff0000"},
		Elements:  fakeElements{},
		Knowledge: store,
	}
	return controller, src, store
}

func TestRun_HealsColorRegression(t *testing.T) {
	controller, src, store := newController(t, regressedCSS)
	ctx := context.Background()

	runReport, err := controller.Run(ctx)
	require.NoError(t, err)

	require.Len(t, runReport.Surfaces, 1)
	surface := runReport.Surfaces[0]
	assert.Equal(t, types.SurfaceFixed, surface.Outcome)
	assert.Equal(t, 1, runReport.FixesCommitted())

	require.Len(t, surface.Issues, 1)
	issue := surface.Issues[0]
	assert.True(t, issue.Resolved)
	require.Len(t, issue.Attempts, 1)
	attempt := issue.Attempts[0]
	assert.Equal(t, types.StatusCommitted, attempt.Status)
	assert.Equal(t, types.OriginHeuristic, attempt.Candidate.Origin)
	require.NotNil(t, attempt.Verification)
	assert.True(t, attempt.Verification.Accepted)

	content, err := os.ReadFile(filepath.Join(src, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, goodCSS, string(content))

	entries, err := store.QueryBySignature(ctx, surface.Issues[0].Issue.Signature())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.OutcomeSuccess, entries[0].Outcome)
}

func TestRun_ExhaustedCandidatesRevertAndRecordFailure(t *testing.T) {
	controller, src, store := newController(t, regressedCSS)
	// A differ that never improves: the marker is present no matter what
	// the heuristic fix writes.
	controller.Differ = &sourceDiffer{stylesheet: filepath.Join(src, "styles.css"), marker: "#header"}
	ctx := context.Background()

	runReport, err := controller.Run(ctx)
	require.NoError(t, err)

	require.Len(t, runReport.Surfaces, 1)
	surface := runReport.Surfaces[0]
	assert.Equal(t, types.SurfaceFixesFailed, surface.Outcome)
	assert.Equal(t, "all_fixes_exhausted", surface.Reason)
	assert.Zero(t, runReport.FixesCommitted())

	require.Len(t, surface.Issues, 1)
	issue := surface.Issues[0]
	assert.False(t, issue.Resolved)
	assert.Equal(t, "all_fixes_exhausted", issue.FailReason)
	require.Len(t, issue.Attempts, 1, "failed candidates are tried exactly once")
	assert.Equal(t, types.StatusReverted, issue.Attempts[0].Status)

	content, err := os.ReadFile(filepath.Join(src, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, regressedCSS, string(content), "exhausted issue leaves the tree untouched")

	entries, err := store.QueryBySignature(ctx, issue.Issue.Signature())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.OutcomeFailure, entries[0].Outcome)
}

func TestHealSurface_StaleCandidateRecordsApplyFailure(t *testing.T) {
	controller, src, store := newController(t, regressedCSS)
	ctx := context.Background()

	state, err := controller.buildState(filepath.Join(t.TempDir(), "run"))
	require.NoError(t, err)

	// Rewrite the stylesheet after indexing: the regression marker is still
	// present, but the line the candidate recorded is gone, so the apply
	// step must retire it without touching the file.
	stale := "#header { border: 4px dashed #ff0000; margin: 2px; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "styles.css"), []byte(stale), 0o644))

	surface := controller.healSurface(ctx, state, controller.Options.Surfaces[0])
	assert.Equal(t, types.SurfaceFixesFailed, surface.Outcome)
	require.Len(t, surface.Issues, 1)
	issue := surface.Issues[0]
	assert.False(t, issue.Resolved)
	require.Len(t, issue.Attempts, 1)
	assert.Equal(t, types.StatusApplyFailed, issue.Attempts[0].Status)

	content, err := os.ReadFile(filepath.Join(src, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, stale, string(content))

	entries, err := store.QueryBySignature(ctx, issue.Issue.Signature())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.OutcomeApplyFailed, entries[0].Outcome)
	assert.InDelta(t, 4.0, entries[0].DiffPercentageAfter, 1e-9,
		"a retired candidate leaves the surface diff unchanged")
}

func TestRun_CleanSurface(t *testing.T) {
	controller, _, _ := newController(t, goodCSS)

	runReport, err := controller.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, runReport.Surfaces, 1)
	assert.Equal(t, types.SurfaceClean, runReport.Surfaces[0].Outcome)
	assert.Empty(t, runReport.Surfaces[0].Issues)
}

func TestRun_FixDisabledStopsAfterLocalization(t *testing.T) {
	controller, src, _ := newController(t, regressedCSS)
	controller.Options.FixEnabled = false

	runReport, err := controller.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, runReport.Surfaces, 1)
	surface := runReport.Surfaces[0]
	assert.Equal(t, types.SurfaceNotAttempted, surface.Outcome)
	require.Len(t, surface.Issues, 1)
	assert.Empty(t, surface.Issues[0].Attempts)

	content, err := os.ReadFile(filepath.Join(src, "styles.css"))
	require.NoError(t, err)
	assert.Equal(t, regressedCSS, string(content))
}

func TestRun_MissingBaselineSkipsSurface(t *testing.T) {
	controller, _, _ := newController(t, regressedCSS)
	controller.Options.Surfaces = append(controller.Options.Surfaces, capture.Surface{Name: "about", URL: "http://localhost/about"})

	runReport, err := controller.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, runReport.Surfaces, 2)
	assert.Equal(t, "about", runReport.Surfaces[1].Name)
	assert.Equal(t, types.SurfaceSkipped, runReport.Surfaces[1].Outcome)
	assert.Contains(t, runReport.Surfaces[1].Reason, "no baseline")
}
