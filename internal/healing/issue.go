package healing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/capture"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/llm"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/segmentation"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

const (
	// regionCropPad is the context margin around a region crop sent to the
	// generation capability.
	regionCropPad = 16
	// regionCropMaxSide bounds crop dimensions to keep requests small.
	regionCropMaxSide = 512
)

// healIssue tries the ranked candidates for one issue, best first, stopping
// at the first verified success. Failed candidates are never retried.
// diffBefore tracks the surface's latest diff percentage and is advanced
// when a fix commits, so later issues on the surface verify against the
// post-fix state. The second return value reports a fatal failure (apply
// abort, verification error, failed revert) after which the surface must not
// attempt further issues.
func (c *Controller) healIssue(ctx context.Context, state *runState, surface capture.Surface, issue *types.LocalizedIssue, diffBefore *float64) (types.IssueReport, bool) {
	images := regionImages(issue)
	if c.Client != nil {
		issue.Summary = state.generator.Summarize(ctx, issue)
	}

	issueReport := types.IssueReport{Issue: issue}

	candidates := state.generator.Generate(ctx, issue, images)
	if len(candidates) == 0 {
		issueReport.FailReason = "no fix candidates"
		return issueReport, false
	}
	if c.Options.MaxAttemptsPerIssue > 0 && len(candidates) > c.Options.MaxAttemptsPerIssue {
		candidates = candidates[:c.Options.MaxAttemptsPerIssue]
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			issueReport.FailReason = "canceled"
			return issueReport, true
		}

		record, err := state.applier.Apply(candidate)
		if err != nil {
			issueReport.FailReason = fmt.Sprintf("apply aborted: %v", err)
			return issueReport, true
		}
		if record.Status == types.StatusApplyFailed {
			c.recordOutcome(issue, candidate, types.OutcomeApplyFailed, *diffBefore)
			issueReport.Attempts = append(issueReport.Attempts, *record)
			continue
		}

		// From here the file is modified: every path below must end in
		// Commit or Revert, including cancellation.
		record.Status = types.StatusVerifying
		verification, err := state.verifier.Verify(ctx, surface, issue.Comparison.BaselinePath, *diffBefore, state.runDir)
		if err != nil {
			record.FailReason = fmt.Sprintf("verification failed: %v", err)
			if revertErr := state.applier.Revert(record); revertErr != nil {
				record.FailReason = fmt.Sprintf("%s; revert failed: %v", record.FailReason, revertErr)
			}
			issueReport.Attempts = append(issueReport.Attempts, *record)
			issueReport.FailReason = record.FailReason
			return issueReport, true
		}
		record.Verification = verification

		if verification.Accepted {
			record.Status = types.StatusVerifiedSuccess
			_ = state.applier.Commit(record)
			c.recordOutcome(issue, candidate, types.OutcomeSuccess, verification.DiffPercentageAfter)
			*diffBefore = verification.DiffPercentageAfter
			issueReport.Attempts = append(issueReport.Attempts, *record)
			issueReport.Resolved = true
			return issueReport, false
		}

		record.Status = types.StatusVerifiedFailure
		record.FailReason = verification.Reason
		if err := state.applier.Revert(record); err != nil {
			record.FailReason = fmt.Sprintf("%s; revert failed: %v", record.FailReason, err)
			issueReport.Attempts = append(issueReport.Attempts, *record)
			issueReport.FailReason = record.FailReason
			return issueReport, true
		}
		c.recordOutcome(issue, candidate, types.OutcomeFailure, verification.DiffPercentageAfter)
		issueReport.Attempts = append(issueReport.Attempts, *record)
	}

	issueReport.FailReason = "all_fixes_exhausted"
	return issueReport, false
}

// recordOutcome appends a knowledge base entry for one attempt. Apply
// failures carry the surface's unchanged diff percentage; the knowledge
// success ratio ignores them, since a candidate that never reached
// verification says nothing about fix quality.
func (c *Controller) recordOutcome(issue *types.LocalizedIssue, candidate types.FixCandidate, outcome types.Outcome, diffAfter float64) {
	if c.Knowledge == nil {
		return
	}
	entry := types.KnowledgeBaseEntry{
		IssueSignature:      issue.Signature(),
		FixDescription:      candidate.Description,
		Outcome:             outcome,
		DiffPercentageAfter: diffAfter,
		Timestamp:           time.Now().UTC(),
	}
	// Recording must survive cancellation: the attempt already happened.
	if err := c.Knowledge.Append(context.Background(), entry); err != nil {
		fmt.Printf("[HEAL] Warning: failed to record outcome for %s: %v\n", issue.Signature(), err)
	}
}

// regionImages crops the issue's region from the baseline and current
// screenshots as generation context. Missing or unreadable screenshots just
// mean fewer images.
func regionImages(issue *types.LocalizedIssue) []llm.Image {
	if issue.Comparison == nil {
		return nil
	}

	var images []llm.Image
	for _, path := range []string{issue.Comparison.BaselinePath, issue.Comparison.CurrentPath} {
		img, err := loadImage(path)
		if err != nil {
			continue
		}
		crop := segmentation.CropRegion(img, issue.Region, regionCropPad, regionCropMaxSide)
		var buf bytes.Buffer
		if err := png.Encode(&buf, crop); err != nil {
			continue
		}
		images = append(images, llm.Image{MIMEType: "png", Data: buf.Bytes()})
	}
	return images
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
