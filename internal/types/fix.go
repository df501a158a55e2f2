package types

// CandidateOrigin identifies how a fix candidate was produced.
type CandidateOrigin string

const (
	OriginHeuristic     CandidateOrigin = "heuristic"
	OriginGenerated     CandidateOrigin = "generated"
	OriginKnowledgeBase CandidateOrigin = "knowledge-base"
)

// originRank orders candidate origins for tie-breaking: heuristics are
// reproducible, generated text is not.
var originRank = map[CandidateOrigin]int{
	OriginHeuristic:     0,
	OriginKnowledgeBase: 1,
	OriginGenerated:     2,
}

// OriginRank returns the tie-break rank for an origin (lower wins).
func OriginRank(o CandidateOrigin) int {
	if r, ok := originRank[o]; ok {
		return r
	}
	return len(originRank)
}

// FixCandidate is one proposed single-line source edit.
type FixCandidate struct {
	FilePath         string          `json:"file_path"`
	LineNumber       int             `json:"line_number"` // 1-based
	CurrentContent   string          `json:"current_content"`
	SuggestedContent string          `json:"suggested_content"`
	Confidence       float64         `json:"confidence"` // [0,1]
	Description      string          `json:"description"`
	Origin           CandidateOrigin `json:"origin"`
}

// FixStatus tracks the lifecycle of one fix application attempt.
type FixStatus string

const (
	StatusApplied         FixStatus = "applied"
	StatusVerifying       FixStatus = "verifying"
	StatusVerifiedSuccess FixStatus = "verified_success"
	StatusVerifiedFailure FixStatus = "verified_failure"
	StatusReverted        FixStatus = "reverted"
	StatusCommitted       FixStatus = "committed"
	StatusApplyFailed     FixStatus = "apply_failed"
)

// FixApplicationRecord wraps one candidate trial. It lives for exactly one
// attempt and is retired (committed or reverted) before the next candidate
// for the same issue is tried.
type FixApplicationRecord struct {
	Candidate    FixCandidate        `json:"candidate"`
	BackupPath   string              `json:"backup_path,omitempty"`
	Status       FixStatus           `json:"status"`
	FailReason   string              `json:"fail_reason,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
}

// VerificationResult is the outcome of re-rendering and re-diffing after a fix.
type VerificationResult struct {
	DiffPercentageAfter float64 `json:"diff_percentage_after"`
	ScreenshotPath      string  `json:"screenshot_path,omitempty"`
	DiffImagePath       string  `json:"diff_image_path,omitempty"`
	Accepted            bool    `json:"accepted"`
	Reason              string  `json:"reason,omitempty"`
}
