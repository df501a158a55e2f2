// Package fixgen turns a localized issue into a ranked list of single-line
// fix candidates, combining reproducible heuristic rules, generated
// suggestions, and historical outcomes from the knowledge base.
package fixgen

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/knowledge"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/llm"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/prompts"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/schemas"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

//go:embed fix_candidates.schema.json
var fixCandidatesSchema string

const (
	// defaultGenerationTimeout bounds one generation request. A timeout is
	// treated as "no generated candidates", never as a run failure.
	defaultGenerationTimeout = 120 * time.Second
	// defaultConfidenceGate: generation is only requested when no heuristic
	// candidate reaches this confidence.
	defaultConfidenceGate = 0.8
	// defaultMaxReferences bounds how many code references feed the prompt.
	defaultMaxReferences = 3
	// promptSnippetContext is the number of lines shown around each reference.
	promptSnippetContext   = 3
	maxGeneratedCandidates = 3
	// knowledgeBiasSpan is the maximum confidence shift (up or down) that
	// historical outcomes for a matching signature can apply.
	knowledgeBiasSpan = 0.2
)

// Generator produces ranked fix candidates for localized issues.
type Generator struct {
	// Index resolves code references to file content.
	Index *sourceindex.Index
	// Heuristics seeds rule-based candidates. Nil disables them.
	Heuristics *Heuristics
	// Client produces generated candidates. Nil disables generation.
	Client llm.Client
	// Knowledge biases confidence by historical outcomes. Nil disables bias.
	Knowledge knowledge.Store

	// ConfidenceGate gates generation: the client is only consulted when no
	// heuristic candidate reaches it.
	ConfidenceGate float64
	// Timeout bounds one generation request.
	Timeout time.Duration
	// MaxReferences bounds prompt context size.
	MaxReferences int
	Verbose       bool
}

// NewGenerator creates a generator with default gating and timeout.
func NewGenerator(index *sourceindex.Index, heuristics *Heuristics, client llm.Client, store knowledge.Store) *Generator {
	return &Generator{
		Index:          index,
		Heuristics:     heuristics,
		Client:         client,
		Knowledge:      store,
		ConfidenceGate: defaultConfidenceGate,
		Timeout:        defaultGenerationTimeout,
		MaxReferences:  defaultMaxReferences,
	}
}

// Generate produces the ranked candidate list for one issue. Every internal
// failure (generation timeout, malformed response, history lookup error) is
// soft: it narrows the candidate list instead of failing the run.
func (g *Generator) Generate(ctx context.Context, issue *types.LocalizedIssue, images []llm.Image) []types.FixCandidate {
	candidates := g.Heuristics.Candidates(issue)
	if g.Verbose {
		fmt.Printf("[FIXGEN] %s: %d heuristic candidate(s)\n", issue.Signature(), len(candidates))
	}

	if g.Client != nil && !reachesGate(candidates, g.ConfidenceGate) {
		generated := g.generated(ctx, issue, images)
		if g.Verbose {
			fmt.Printf("[FIXGEN] %s: %d generated candidate(s)\n", issue.Signature(), len(generated))
		}
		candidates = append(candidates, generated...)
	}

	g.applyKnowledgeBias(ctx, issue, candidates)
	Rank(candidates)
	return candidates
}

// Summarize asks the generation capability to describe a diff region in one
// or two sentences. Empty on any failure; summaries are decoration.
func (g *Generator) Summarize(ctx context.Context, issue *types.LocalizedIssue) string {
	if g.Client == nil {
		return ""
	}

	template, err := prompts.Get("classify-region")
	if err != nil {
		return ""
	}
	prompt := prompts.Format(template, map[string]string{
		"SurfaceName":    issue.SurfaceName,
		"Classification": string(issue.Classification),
		"RegionX":        strconv.Itoa(issue.Region.X),
		"RegionY":        strconv.Itoa(issue.Region.Y),
		"RegionWidth":    strconv.Itoa(issue.Region.Width),
		"RegionHeight":   strconv.Itoa(issue.Region.Height),
		"RegionPixels":   strconv.Itoa(issue.Region.PixelCount),
	})

	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	text, err := g.Client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		if g.Verbose {
			fmt.Printf("[FIXGEN] Warning: region summary failed: %v\n", err)
		}
		return ""
	}
	return strings.TrimSpace(text)
}

func reachesGate(candidates []types.FixCandidate, gate float64) bool {
	for _, c := range candidates {
		if c.Confidence >= gate {
			return true
		}
	}
	return false
}

// generatedPayload mirrors the JSON contract enforced by the schema.
type generatedPayload struct {
	Candidates []struct {
		FilePath         string  `json:"file_path"`
		LineNumber       int     `json:"line_number"`
		CurrentContent   string  `json:"current_content"`
		SuggestedContent string  `json:"suggested_content"`
		Confidence       float64 `json:"confidence"`
		Description      string  `json:"description"`
	} `json:"candidates"`
}

// generated requests fix suggestions from the generation capability and
// sanitizes them against the actual source index. Any failure returns nil.
func (g *Generator) generated(ctx context.Context, issue *types.LocalizedIssue, images []llm.Image) []types.FixCandidate {
	template, err := prompts.Get("generate-fix-candidates")
	if err != nil {
		fmt.Printf("[FIXGEN] Warning: prompt unavailable: %v\n", err)
		return nil
	}

	codeContext := g.buildCodeContext(issue)
	if codeContext == "" {
		return nil
	}

	prompt := prompts.Format(template, map[string]string{
		"SurfaceName":    issue.SurfaceName,
		"Classification": string(issue.Classification),
		"Description":    g.describe(issue),
		"CodeContext":    codeContext,
	})

	genCtx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	raw, err := g.Client.GenerateJSONWithImages(genCtx, prompt, images, llm.TierStandard)
	if err != nil {
		fmt.Printf("[FIXGEN] Warning: generation failed for %s: %v\n", issue.Signature(), err)
		return nil
	}

	if err := schemas.ValidateString(fixCandidatesSchema, raw); err != nil {
		fmt.Printf("[FIXGEN] Warning: discarding malformed generation for %s: %v\n", issue.Signature(), err)
		return nil
	}

	var payload generatedPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		fmt.Printf("[FIXGEN] Warning: discarding unparsable generation for %s: %v\n", issue.Signature(), err)
		return nil
	}

	var out []types.FixCandidate
	for _, c := range payload.Candidates {
		if len(out) == maxGeneratedCandidates {
			break
		}
		candidate := types.FixCandidate{
			FilePath:         c.FilePath,
			LineNumber:       c.LineNumber,
			CurrentContent:   c.CurrentContent,
			SuggestedContent: c.SuggestedContent,
			Confidence:       clamp01(c.Confidence),
			Description:      c.Description,
			Origin:           types.OriginGenerated,
		}
		if g.anchor(&candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// anchor verifies the candidate against the indexed sources: its current
// content must exist in the named file, preferably at the stated line. A
// candidate that cannot be anchored to a real line is dropped.
func (g *Generator) anchor(candidate *types.FixCandidate) bool {
	if candidate.SuggestedContent == candidate.CurrentContent || strings.TrimSpace(candidate.CurrentContent) == "" {
		return false
	}
	component := g.Index.Files[candidate.FilePath]
	if component == nil {
		return false
	}

	if line, ok := component.Line(candidate.LineNumber); ok && line == candidate.CurrentContent {
		return true
	}

	// The model sometimes miscounts lines; accept a unique exact-content
	// match elsewhere in the file and correct the line number.
	match := 0
	for i, line := range component.Lines {
		if line == candidate.CurrentContent {
			if match != 0 {
				return false
			}
			match = i + 1
		}
	}
	if match == 0 {
		return false
	}
	candidate.LineNumber = match
	return true
}

// buildCodeContext renders the top code references with surrounding lines.
func (g *Generator) buildCodeContext(issue *types.LocalizedIssue) string {
	maxRefs := g.MaxReferences
	if maxRefs <= 0 {
		maxRefs = defaultMaxReferences
	}

	var sb strings.Builder
	count := 0
	for _, ref := range issue.CodeReferences {
		if count == maxRefs {
			break
		}
		component := g.Index.Files[ref.FilePath]
		if component == nil {
			continue
		}
		snippet := component.Snippet(ref.LineNumber, promptSnippetContext)
		if snippet == "" {
			continue
		}
		start := max(1, ref.LineNumber-promptSnippetContext)
		fmt.Fprintf(&sb, "--- %s (around line %d, snippet starts at line %d) ---\n%s\n\n",
			ref.FilePath, ref.LineNumber, start, snippet)
		count++
	}
	return strings.TrimSpace(sb.String())
}

func (g *Generator) describe(issue *types.LocalizedIssue) string {
	if issue.Summary != "" {
		return issue.Summary
	}
	return fmt.Sprintf("%s difference in a %dx%d region at (%d,%d)",
		issue.Classification, issue.Region.Width, issue.Region.Height, issue.Region.X, issue.Region.Y)
}

// applyKnowledgeBias shifts every candidate's confidence toward the
// historical success ratio of fixes with the same issue signature. No
// history leaves confidences untouched.
func (g *Generator) applyKnowledgeBias(ctx context.Context, issue *types.LocalizedIssue, candidates []types.FixCandidate) {
	if g.Knowledge == nil || len(candidates) == 0 {
		return
	}

	entries, err := g.Knowledge.QueryBySignature(ctx, issue.Signature())
	if err != nil {
		fmt.Printf("[FIXGEN] Warning: knowledge lookup failed for %s: %v\n", issue.Signature(), err)
		return
	}
	if len(entries) == 0 {
		return
	}

	ratio := knowledge.Tally(entries).Ratio()
	delta := (ratio - 0.5) * 2 * knowledgeBiasSpan
	for i := range candidates {
		candidates[i].Confidence = clamp01(candidates[i].Confidence + delta)
	}
	if g.Verbose {
		fmt.Printf("[FIXGEN] %s: %d prior attempt(s), confidence shift %+.2f\n", issue.Signature(), len(entries), delta)
	}
}

func (g *Generator) timeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return defaultGenerationTimeout
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
