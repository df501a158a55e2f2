package types

import "time"

// Outcome records how a fix attempt ended. Success and failure are verified
// outcomes; apply_failed means the candidate never reached verification
// because its target line no longer matched.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeFailure     Outcome = "failure"
	OutcomeApplyFailed Outcome = "apply_failed"
)

// KnowledgeBaseEntry is one append-only record of a fix attempt. Entries are
// never mutated, only appended and read.
type KnowledgeBaseEntry struct {
	IssueSignature      string    `json:"issue_signature"`
	FixDescription      string    `json:"fix_description"`
	Outcome             Outcome   `json:"outcome"`
	DiffPercentageAfter float64   `json:"diff_percentage_after"`
	Timestamp           time.Time `json:"timestamp"`
}
