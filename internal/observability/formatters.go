// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintComparison outputs a human-readable summary of one surface comparison.
func (p *Printer) PrintComparison(cmp *types.ComparisonResult) {
	if cmp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Surface:  %s\n", cmp.Name))
	sb.WriteString(fmt.Sprintf("Canvas:   %dx%d\n", cmp.Width, cmp.Height))
	sb.WriteString(fmt.Sprintf("Diff:     %.3f%% (%d of %d px)\n", cmp.DiffPercentage, cmp.DiffPixelCount, cmp.TotalPixels))
	if cmp.DimensionMismatch {
		sb.WriteString("⚠ baseline and current canvas sizes differ\n")
	}

	p.printBox("SCREENSHOT COMPARISON", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIssues outputs the localized issues kept for fix generation.
func (p *Printer) PrintIssues(issues []*types.LocalizedIssue) {
	if len(issues) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Localized %d issue(s):\n\n", len(issues)))

	count := min(len(issues), maxItemsToShow)
	for i := 0; i < count; i++ {
		issue := issues[i]
		sb.WriteString(fmt.Sprintf("#%d  %s at (%d,%d) %dx%d\n", i+1,
			issue.Classification, issue.Region.X, issue.Region.Y, issue.Region.Width, issue.Region.Height))
		sb.WriteString(fmt.Sprintf("    Severity: %.2f%%\n", issue.Severity))
		if len(issue.AffectedElements) > 0 {
			selectors := make([]string, 0, len(issue.AffectedElements))
			for _, ae := range issue.AffectedElements {
				selectors = append(selectors, ae.Element.Selector)
			}
			joined := strings.Join(selectors, ", ")
			if len(joined) > 40 {
				joined = joined[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf("    Elements: %s\n", joined))
		}
		if len(issue.CodeReferences) > 0 {
			top := issue.CodeReferences[0]
			sb.WriteString(fmt.Sprintf("    Top ref:  %s:%d (%.2f)\n", top.FilePath, top.LineNumber, top.Confidence))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(issues) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more issues", len(issues)-maxItemsToShow))
	}

	p.printBox("LOCALIZED ISSUES", sb.String())
}

// PrintAttempts outputs the fix trial trail for one issue.
func (p *Printer) PrintAttempts(attempts []types.FixApplicationRecord) {
	if len(attempts) == 0 {
		return
	}

	var sb strings.Builder
	for i, attempt := range attempts {
		sb.WriteString(fmt.Sprintf("%d. %s:%d [%s] %s\n", i+1,
			attempt.Candidate.FilePath, attempt.Candidate.LineNumber, attempt.Candidate.Origin, attempt.Status))
		if attempt.Verification != nil {
			sb.WriteString(fmt.Sprintf("   after: %.3f%% (%s)\n", attempt.Verification.DiffPercentageAfter, attempt.Verification.Reason))
		} else if attempt.FailReason != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", attempt.FailReason))
		}
	}

	p.printBox("FIX ATTEMPTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the per-surface outcomes of a finished run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRunSummary(runReport *types.RunReport) {
	if runReport == nil {
		return
	}
	if len(runReport.Surfaces) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO SURFACES CONFIGURED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run %s\n\n", runReport.RunID))
	for _, surface := range runReport.Surfaces {
		marker := "•"
		switch surface.Outcome {
		case types.SurfaceClean, types.SurfaceFixed:
			marker = "✅"
		case types.SurfaceFixesFailed, types.SurfaceIssueAborted:
			marker = "⚠"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", marker, surface.Name, surface.Outcome))
		if surface.Reason != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", surface.Reason))
		}
	}
	sb.WriteString(fmt.Sprintf("\nFixes committed: %d", runReport.FixesCommitted()))

	p.printBox("RUN SUMMARY", sb.String())
}
