package fixgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/VitoDD/ProofOfConcept-sub000/internal/sourceindex"
	"github.com/VitoDD/ProofOfConcept-sub000/internal/types"
)

// Heuristic confidences per rule. Reproducible rules score above generated
// suggestions but below certainty.
const (
	confColorRule  = 0.85
	confLayoutRule = 0.80
	confMarkupRule = 0.75
)

var (
	colorPropertyPattern = regexp.MustCompile(`(?i)\b(color|background|background-color|border-color|fill|stroke)\s*:`)
	boxModelPattern      = regexp.MustCompile(`(?i)\b(margin|padding|width|height|top|left|right|bottom|display|position|float|flex|grid|gap|font-size|line-height)[a-z-]*\s*:`)
)

// styleBlockScan bounds how many lines past a CSS selector reference are
// searched for the declaration that actually changed. Code references point
// at selector occurrences; the offending property usually sits a few lines
// below, inside the rule block.
const styleBlockScan = 12

// Heuristics seeds fix candidates from rule matches on the issue's code
// references. A rule only fires when it can produce a concrete edit: the
// implicated line must differ from the same line in a known-good baseline
// copy of the sources, in which case the candidate reverts that line.
type Heuristics struct {
	// Index is the per-run source index over the current sources.
	Index *sourceindex.Index
	// BaselineRoot is the root of the last known-good source snapshot.
	// Empty disables heuristic candidates entirely.
	BaselineRoot string

	baselineLines map[string][]string // relative path -> lines, lazily loaded
}

// Candidates produces heuristic fix candidates for the issue, unranked.
func (h *Heuristics) Candidates(issue *types.LocalizedIssue) []types.FixCandidate {
	if h == nil || h.Index == nil || h.BaselineRoot == "" {
		return nil
	}

	var out []types.FixCandidate
	seen := make(map[string]bool)

	for _, ref := range issue.CodeReferences {
		component := h.Index.Files[ref.FilePath]
		if component == nil {
			continue
		}

		for _, lineNumber := range h.scanLines(component, ref.LineNumber) {
			line, ok := component.Line(lineNumber)
			if !ok {
				continue
			}

			confidence, rule := h.match(issue.Classification, component.Kind, line)
			if rule == "" {
				continue
			}

			baselineLine, ok := h.baselineLine(ref.FilePath, lineNumber)
			if !ok || baselineLine == line {
				// No divergence from the known-good snapshot means no
				// concrete edit to propose.
				continue
			}

			key := fmt.Sprintf("%s:%d", ref.FilePath, lineNumber)
			if seen[key] {
				continue
			}
			seen[key] = true

			out = append(out, types.FixCandidate{
				FilePath:         ref.FilePath,
				LineNumber:       lineNumber,
				CurrentContent:   line,
				SuggestedContent: baselineLine,
				Confidence:       confidence,
				Description:      fmt.Sprintf("revert %s line %d to baseline (%s)", ref.FilePath, lineNumber, rule),
				Origin:           types.OriginHeuristic,
			})
		}
	}

	return out
}

// scanLines lists the candidate lines for one reference: the referenced line
// itself, plus the rest of the rule block for style files.
func (h *Heuristics) scanLines(component *sourceindex.Component, lineNumber int) []int {
	lines := []int{lineNumber}
	if component.Kind != sourceindex.KindStyle {
		return lines
	}
	for i := lineNumber + 1; i <= min(len(component.Lines), lineNumber+styleBlockScan); i++ {
		line, ok := component.Line(i)
		if !ok || strings.Contains(line, "}") {
			break
		}
		lines = append(lines, i)
	}
	return lines
}

// match reports the rule (and its confidence) firing for a classification on
// a line of the given file kind.
func (h *Heuristics) match(classification types.Classification, kind sourceindex.FileKind, line string) (float64, string) {
	switch classification {
	case types.ClassColor:
		if kind == sourceindex.KindStyle && colorPropertyPattern.MatchString(line) {
			return confColorRule, "color property"
		}
	case types.ClassLayout:
		if kind == sourceindex.KindStyle && boxModelPattern.MatchString(line) {
			return confLayoutRule, "box model property"
		}
	case types.ClassText, types.ClassMissingElement:
		if kind == sourceindex.KindMarkup && strings.TrimSpace(line) != "" {
			return confMarkupRule, "markup element"
		}
	}
	return 0, ""
}

// baselineLine returns the 1-based line n of the baseline copy of relPath.
func (h *Heuristics) baselineLine(relPath string, n int) (string, bool) {
	lines, ok := h.baselineLines[relPath]
	if !ok {
		if h.baselineLines == nil {
			h.baselineLines = make(map[string][]string)
		}
		data, err := os.ReadFile(filepath.Join(h.BaselineRoot, relPath))
		if err != nil {
			h.baselineLines[relPath] = nil
			return "", false
		}
		lines = strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
		h.baselineLines[relPath] = lines
	}
	if n < 1 || n > len(lines) {
		return "", false
	}
	return lines[n-1], true
}
