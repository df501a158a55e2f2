// Package healing orchestrates one self-healing run: render, diff, localize,
// generate fixes, apply, verify, and record the outcome per UI surface.
package healing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/fixapply"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/fixgen"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/knowledge"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/llm"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/localization"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/report"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/segmentation"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/uimap"
)

// Options configures one run of the controller.
type Options struct {
	// Surfaces are the named pages to render and compare.
	Surfaces []capture.Surface
	// BaselineDir holds one <name>.png baseline screenshot per surface.
	BaselineDir string
	// WorkDir receives run-scoped artifacts (screenshots, diffs, backups).
	WorkDir string
	// SourceRoot is the UI source tree candidates are applied to.
	SourceRoot string
	// BaselineSourceRoot is an optional known-good source snapshot that
	// enables heuristic revert candidates.
	BaselineSourceRoot string

	// DiffThreshold is the diff percentage (0-100) above which a surface
	// counts as regressed.
	DiffThreshold float64
	// Acceptance decides when a verified fix passes.
	Acceptance fixapply.AcceptanceRule
	// MaxAttemptsPerIssue caps candidate trials per issue. Zero tries all.
	MaxAttemptsPerIssue int
	// FixEnabled gates the apply/verify loop; false stops after localization.
	FixEnabled bool
	// Workers bounds surface-level parallelism. Values below 1 mean serial.
	Workers int
	// ModifiedWindow flags source files changed within this duration as
	// likely culprits. Zero disables the change detector.
	ModifiedWindow time.Duration
	Verbose        bool
}

// Controller wires the capabilities of a run. Renderer, Differ, and Elements
// are required; Client, Knowledge, and Sink are optional and degrade
// gracefully when absent.
type Controller struct {
	Options   Options
	Renderer  capture.Renderer
	Differ    capture.Differ
	Elements  uimap.ElementSource
	Client    llm.Client
	Knowledge knowledge.Store
	Sink      report.Sink
}

// runState is the per-run pipeline built once the source index exists.
type runState struct {
	runDir    string
	index     *sourceindex.Index
	mapper    *uimap.Mapper
	localizer *localization.Localizer
	generator *fixgen.Generator
	applier   *fixapply.Applier
	verifier  *fixapply.Verifier

	mu       sync.Mutex
	surfaces []types.SurfaceReport
}

// Run executes the full loop across all configured surfaces and returns the
// run report. A per-surface failure is recorded in the report, not returned;
// the error covers run-level failures only (bad configuration, report sink).
func (c *Controller) Run(ctx context.Context) (*types.RunReport, error) {
	started := time.Now().UTC()
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(c.Options.WorkDir, "runs", runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	fmt.Printf("[HEAL] Run %s: %d surface(s)\n", runID, len(c.Options.Surfaces))

	state, err := c.buildState(runDir)
	if err != nil {
		return nil, err
	}

	workers := c.Options.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, surface := range c.Options.Surfaces {
		g.Go(func() error {
			surfaceReport := c.healSurface(gctx, state, surface)
			state.mu.Lock()
			state.surfaces = append(state.surfaces, surfaceReport)
			state.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Restore the configured surface order; workers finish in any order.
	ordered := make([]types.SurfaceReport, 0, len(state.surfaces))
	for _, surface := range c.Options.Surfaces {
		for _, sr := range state.surfaces {
			if sr.Name == surface.Name {
				ordered = append(ordered, sr)
				break
			}
		}
	}

	runReport := &types.RunReport{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Surfaces:   ordered,
	}

	if c.Sink != nil {
		if err := c.Sink.Write(ctx, runReport); err != nil {
			return runReport, fmt.Errorf("failed to persist run report: %w", err)
		}
	}

	fmt.Printf("[HEAL] Run %s finished: %d fix(es) committed\n", runID, runReport.FixesCommitted())
	return runReport, nil
}

// buildState indexes the sources and assembles the per-run pipeline.
func (c *Controller) buildState(runDir string) (*runState, error) {
	var detector sourceindex.ChangeDetector
	if c.Options.ModifiedWindow > 0 {
		detector = sourceindex.MTimeWindowDetector{Since: time.Now().Add(-c.Options.ModifiedWindow)}
	}

	index, err := sourceindex.Build(c.Options.SourceRoot, sourceindex.Options{Detector: detector})
	if err != nil {
		return nil, fmt.Errorf("failed to index sources: %w", err)
	}
	if c.Options.Verbose {
		fmt.Printf("[INDEX] %d file(s) indexed, %d recently modified\n", len(index.Files), len(index.ModifiedFiles()))
	}

	segmenter := segmentation.NewSegmenter()
	localizer := localization.NewLocalizer(segmenter, index)
	localizer.Verbose = c.Options.Verbose

	heuristics := &fixgen.Heuristics{Index: index, BaselineRoot: c.Options.BaselineSourceRoot}
	generator := fixgen.NewGenerator(index, heuristics, c.Client, c.Knowledge)
	generator.Verbose = c.Options.Verbose

	verifier := &fixapply.Verifier{
		Renderer: c.Renderer,
		Differ:   c.Differ,
		Rule:     c.Options.Acceptance,
		Verbose:  c.Options.Verbose,
	}

	applier := fixapply.NewApplier(c.Options.SourceRoot, filepath.Join(runDir, "backups"))
	applier.Verbose = c.Options.Verbose

	return &runState{
		runDir:    runDir,
		index:     index,
		mapper:    uimap.NewMapper(index),
		localizer: localizer,
		generator: generator,
		applier:   applier,
		verifier:  verifier,
	}, nil
}

// healSurface runs the detect-localize-fix loop for one surface. Every
// failure is captured in the report rather than propagated.
func (c *Controller) healSurface(ctx context.Context, state *runState, surface capture.Surface) types.SurfaceReport {
	surfaceReport := types.SurfaceReport{Name: surface.Name}

	cmp, err := c.compareSurface(ctx, state, surface)
	if err != nil {
		surfaceReport.Outcome = types.SurfaceSkipped
		surfaceReport.Reason = err.Error()
		fmt.Printf("[HEAL] %s skipped: %v\n", surface.Name, err)
		return surfaceReport
	}
	surfaceReport.Comparison = cmp

	if !cmp.HasDifferences {
		surfaceReport.Outcome = types.SurfaceClean
		return surfaceReport
	}

	issues, err := c.localizeSurface(ctx, state, surface, cmp)
	if err != nil {
		surfaceReport.Outcome = types.SurfaceSkipped
		surfaceReport.Reason = err.Error()
		fmt.Printf("[HEAL] %s localization skipped: %v\n", surface.Name, err)
		return surfaceReport
	}
	localized := false
	for _, issue := range issues {
		if len(issue.CodeReferences) > 0 {
			localized = true
			break
		}
	}
	if len(issues) == 0 || !localized {
		surfaceReport.Outcome = types.SurfaceUnlocalized
		surfaceReport.Reason = "differences detected but no code location identified"
		for _, issue := range issues {
			surfaceReport.Issues = append(surfaceReport.Issues, types.IssueReport{Issue: issue})
		}
		return surfaceReport
	}

	if !c.Options.FixEnabled {
		surfaceReport.Outcome = types.SurfaceNotAttempted
		for _, issue := range issues {
			surfaceReport.Issues = append(surfaceReport.Issues, types.IssueReport{Issue: issue})
		}
		return surfaceReport
	}

	diffBefore := cmp.DiffPercentage
	resolved := 0
	for _, issue := range issues {
		issueReport, aborted := c.healIssue(ctx, state, surface, issue, &diffBefore)
		if issueReport.Resolved {
			resolved++
		}
		surfaceReport.Issues = append(surfaceReport.Issues, issueReport)
		if aborted {
			surfaceReport.Outcome = types.SurfaceIssueAborted
			surfaceReport.Reason = issueReport.FailReason
			fmt.Printf("[HEAL] %s aborted: %s\n", surface.Name, issueReport.FailReason)
			return surfaceReport
		}
	}

	switch {
	case resolved == len(issues):
		surfaceReport.Outcome = types.SurfaceFixed
	case resolved > 0:
		surfaceReport.Outcome = types.SurfaceFixesPartial
	default:
		surfaceReport.Outcome = types.SurfaceFixesFailed
		surfaceReport.Reason = "all_fixes_exhausted"
	}
	return surfaceReport
}

// compareSurface renders the surface and diffs it against its baseline.
func (c *Controller) compareSurface(ctx context.Context, state *runState, surface capture.Surface) (*types.ComparisonResult, error) {
	baselinePath := filepath.Join(c.Options.BaselineDir, surface.Name+".png")
	if _, err := os.Stat(baselinePath); err != nil {
		return nil, fmt.Errorf("no baseline for %s: %w", surface.Name, err)
	}

	currentPath := filepath.Join(state.runDir, "current", surface.Name+".png")
	if _, err := c.Renderer.Render(ctx, surface.URL, currentPath); err != nil {
		return nil, err
	}

	diffPath := filepath.Join(state.runDir, "diff", surface.Name+"_diff.png")
	diff, err := c.Differ.Diff(ctx, baselinePath, currentPath, diffPath)
	if err != nil {
		return nil, err
	}

	cmp := &types.ComparisonResult{
		Name:              surface.Name,
		BaselinePath:      baselinePath,
		CurrentPath:       currentPath,
		DiffImagePath:     diff.DiffImagePath,
		Width:             diff.Width,
		Height:            diff.Height,
		DiffPixelCount:    diff.DiffPixelCount,
		TotalPixels:       diff.TotalPixels,
		DiffPercentage:    diff.DiffPercentage,
		HasDifferences:    diff.DiffPercentage > c.Options.DiffThreshold || diff.DimensionMismatch,
		DimensionMismatch: diff.DimensionMismatch,
	}
	if c.Options.Verbose {
		fmt.Printf("[DIFF] %s: %.3f%% (%d px)\n", surface.Name, cmp.DiffPercentage, cmp.DiffPixelCount)
	}
	return cmp, nil
}

// localizeSurface probes the live page and maps diff regions to issues.
func (c *Controller) localizeSurface(ctx context.Context, state *runState, surface capture.Surface, cmp *types.ComparisonResult) ([]*types.LocalizedIssue, error) {
	raw, err := c.Elements.Elements(ctx, surface.URL)
	if err != nil {
		return nil, fmt.Errorf("element probe failed: %w", err)
	}
	elements := state.mapper.MapElements(raw)

	issues, err := state.localizer.LocalizeComparison(cmp, elements)
	if err != nil {
		return nil, err
	}
	return state.localizer.Prioritize(issues), nil
}
