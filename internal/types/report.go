package types

import "time"

// SurfaceOutcome summarizes what happened to one UI surface during a run.
type SurfaceOutcome string

const (
	SurfaceClean         SurfaceOutcome = "clean"               // no regression detected
	SurfaceSkipped       SurfaceOutcome = "skipped"             // localization impossible (e.g. diff image unreadable)
	SurfaceUnlocalized   SurfaceOutcome = "unlocalized"         // regression detected, no code location found
	SurfaceFixed         SurfaceOutcome = "fixed"               // at least one fix verified successful
	SurfaceFixesFailed   SurfaceOutcome = "all_fixes_exhausted" // every candidate failed
	SurfaceFixesPartial  SurfaceOutcome = "partially_fixed"     // some issues fixed, some not
	SurfaceNotAttempted  SurfaceOutcome = "not_attempted"       // localized but fixing disabled
	SurfaceIssueAborted  SurfaceOutcome = "aborted"             // issue resolution aborted (fatal per-issue failure)
)

// IssueReport records the full trail of one localized issue through the loop.
type IssueReport struct {
	Issue      *LocalizedIssue        `json:"issue"`
	Attempts   []FixApplicationRecord `json:"attempts,omitempty"`
	Resolved   bool                   `json:"resolved"`
	FailReason string                 `json:"fail_reason,omitempty"`
}

// SurfaceReport enumerates, per surface, whether a regression was detected,
// localized, fixed, or skipped, with the specific reason recorded.
type SurfaceReport struct {
	Name       string            `json:"name"`
	Comparison *ComparisonResult `json:"comparison,omitempty"`
	Outcome    SurfaceOutcome    `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	Issues     []IssueReport     `json:"issues,omitempty"`
}

// RunReport is the value object handed to the report sink.
type RunReport struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Surfaces   []SurfaceReport `json:"surfaces"`
}

// FixesCommitted counts verified-successful fixes across all surfaces.
func (r *RunReport) FixesCommitted() int {
	count := 0
	for _, s := range r.Surfaces {
		for _, issue := range s.Issues {
			for _, attempt := range issue.Attempts {
				if attempt.Status == StatusCommitted {
					count++
				}
			}
		}
	}
	return count
}
