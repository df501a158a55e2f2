// Package knowledge persists the append-only record of fix attempts and
// outcomes that biases future confidence scoring.
package knowledge

import (
	"context"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Store is the injected knowledge-base contract. Entries are append-only:
// they are never mutated, only appended and read. Implementations must be
// safe for concurrent use.
type Store interface {
	// Append durably records one entry.
	Append(ctx context.Context, entry types.KnowledgeBaseEntry) error
	// QueryBySignature returns all entries recorded for an issue signature.
	QueryBySignature(ctx context.Context, signature string) ([]types.KnowledgeBaseEntry, error)
	// Len returns the number of entries currently known.
	Len(ctx context.Context) (int, error)
	// Close releases underlying resources.
	Close() error
}

// Outcomes tallies the attempt outcomes of a set of entries.
type Outcomes struct {
	Successes     int
	Failures      int
	ApplyFailures int
}

// Tally counts outcomes across entries.
func Tally(entries []types.KnowledgeBaseEntry) Outcomes {
	var out Outcomes
	for _, entry := range entries {
		switch entry.Outcome {
		case types.OutcomeSuccess:
			out.Successes++
		case types.OutcomeFailure:
			out.Failures++
		case types.OutcomeApplyFailed:
			out.ApplyFailures++
		}
	}
	return out
}

// Ratio returns successes/(successes+failures), or 0.5 when no verified
// history exists, so an unknown signature neither boosts nor penalizes a
// candidate. Apply failures are excluded: a candidate that never reached
// verification says nothing about fix quality.
func (o Outcomes) Ratio() float64 {
	total := o.Successes + o.Failures
	if total == 0 {
		return 0.5
	}
	return float64(o.Successes) / float64(total)
}
