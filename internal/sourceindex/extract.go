package sourceindex

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// CSS selectors: #id and .class tokens.
	cssIDPattern    = regexp.MustCompile(`#([A-Za-z_][\w-]*)`)
	cssClassPattern = regexp.MustCompile(`\.([A-Za-z_][\w-]*)`)

	// JS DOM lookups.
	jsGetByIDPattern  = regexp.MustCompile(`getElementById\(\s*['"]([\w-]+)['"]`)
	jsQueryPattern    = regexp.MustCompile(`querySelector(?:All)?\(\s*['"]([#.])([\w-]+)['"]`)
	jsClassPattern    = regexp.MustCompile(`classList\.(?:add|remove|toggle|contains)\(\s*['"]([\w-]+)['"]`)
	jsGetByClassesPat = regexp.MustCompile(`getElementsByClassName\(\s*['"]([\w\s-]+)['"]`)

	// HTML attribute occurrences, used to attach line numbers to the
	// selectors goquery discovered.
	htmlIDAttrPattern    = regexp.MustCompile(`\bid\s*=\s*["']([^"']+)["']`)
	htmlClassAttrPattern = regexp.MustCompile(`\bclass\s*=\s*["']([^"']+)["']`)
)

// parseComponent reads one source file and extracts its selectors.
func parseComponent(root, absPath string) (*Component, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", absPath, err)
	}

	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		rel = absPath
	}
	rel = filepath.ToSlash(rel)

	component := &Component{
		Path:    rel,
		Kind:    KindOf(absPath),
		Lines:   strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"),
		IDs:     make(map[string][]int),
		Classes: make(map[string][]int),
	}

	switch component.Kind {
	case KindStyle:
		extractFromCSS(component)
	case KindScript:
		extractFromScript(component)
	default:
		if err := extractFromMarkup(component, data); err != nil {
			return nil, err
		}
	}

	return component, nil
}

// extractFromMarkup discovers the id/class vocabulary with a real HTML parse,
// then scans lines for attribute occurrences to attach line numbers.
func extractFromMarkup(component *Component, data []byte) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to parse markup %s: %w", component.Path, err)
	}

	declaredIDs := make(map[string]bool)
	declaredClasses := make(map[string]bool)
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if id, ok := sel.Attr("id"); ok && id != "" {
			declaredIDs[id] = true
		}
		if classAttr, ok := sel.Attr("class"); ok {
			for _, class := range strings.Fields(classAttr) {
				declaredClasses[class] = true
			}
		}
	})

	for lineNo, line := range component.Lines {
		for _, m := range htmlIDAttrPattern.FindAllStringSubmatch(line, -1) {
			if declaredIDs[m[1]] {
				component.IDs[m[1]] = append(component.IDs[m[1]], lineNo+1)
			}
		}
		for _, m := range htmlClassAttrPattern.FindAllStringSubmatch(line, -1) {
			for _, class := range strings.Fields(m[1]) {
				if declaredClasses[class] {
					component.Classes[class] = append(component.Classes[class], lineNo+1)
				}
			}
		}
	}
	return nil
}

// extractFromCSS records every #id and .class selector token per line.
func extractFromCSS(component *Component) {
	inComment := false
	for lineNo, line := range component.Lines {
		line, inComment = stripCSSComments(line, inComment)
		for _, m := range cssIDPattern.FindAllStringSubmatch(line, -1) {
			component.IDs[m[1]] = append(component.IDs[m[1]], lineNo+1)
		}
		for _, m := range cssClassPattern.FindAllStringSubmatch(line, -1) {
			component.Classes[m[1]] = append(component.Classes[m[1]], lineNo+1)
		}
	}
}

// extractFromScript records DOM lookups by id or class per line.
func extractFromScript(component *Component) {
	for lineNo, line := range component.Lines {
		for _, m := range jsGetByIDPattern.FindAllStringSubmatch(line, -1) {
			component.IDs[m[1]] = append(component.IDs[m[1]], lineNo+1)
		}
		for _, m := range jsQueryPattern.FindAllStringSubmatch(line, -1) {
			if m[1] == "#" {
				component.IDs[m[2]] = append(component.IDs[m[2]], lineNo+1)
			} else {
				component.Classes[m[2]] = append(component.Classes[m[2]], lineNo+1)
			}
		}
		for _, m := range jsClassPattern.FindAllStringSubmatch(line, -1) {
			component.Classes[m[1]] = append(component.Classes[m[1]], lineNo+1)
		}
		for _, m := range jsGetByClassesPat.FindAllStringSubmatch(line, -1) {
			for _, class := range strings.Fields(m[1]) {
				component.Classes[class] = append(component.Classes[class], lineNo+1)
			}
		}
	}
}

// stripCSSComments removes /* ... */ comment content from a line, carrying
// multi-line comment state between lines.
func stripCSSComments(line string, inComment bool) (string, bool) {
	var sb strings.Builder
	i := 0
	for i < len(line) {
		if inComment {
			end := strings.Index(line[i:], "*/")
			if end < 0 {
				return sb.String(), true
			}
			i += end + 2
			inComment = false
			continue
		}
		start := strings.Index(line[i:], "/*")
		if start < 0 {
			sb.WriteString(line[i:])
			break
		}
		sb.WriteString(line[i : i+start])
		i += start + 2
		inComment = true
	}
	return sb.String(), inComment
}
