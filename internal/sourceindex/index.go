// Package sourceindex maps UI element identifiers (ids, classes, selectors)
// to file and line locations in a UI source tree. The index is rebuilt fully
// once per run and never updated mid-run.
package sourceindex

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileKind categorizes a source file for confidence scoring.
type FileKind string

const (
	KindMarkup FileKind = "markup"
	KindStyle  FileKind = "style"
	KindScript FileKind = "script"
)

// Component is one parsed source file: a line-searchable content index plus
// the selectors it declares or references.
type Component struct {
	Path     string           // relative to the index root
	Kind     FileKind
	Lines    []string
	IDs      map[string][]int // id -> 1-based line numbers
	Classes  map[string][]int // class -> 1-based line numbers
	Modified bool             // flagged by the change detector
}

// Line returns the 1-based line n, if present.
func (c *Component) Line(n int) (string, bool) {
	if n < 1 || n > len(c.Lines) {
		return "", false
	}
	return c.Lines[n-1], true
}

// Snippet returns up to context lines around the 1-based line n, joined with
// newlines. Used as bounded code context for fix generation.
func (c *Component) Snippet(n, context int) string {
	if n < 1 || n > len(c.Lines) {
		return ""
	}
	start := max(1, n-context)
	end := min(len(c.Lines), n+context)
	return strings.Join(c.Lines[start-1:end], "\n")
}

// Occurrence is one place a selector appears.
type Occurrence struct {
	Component *Component
	Line      int // 1-based
}

// ChangeDetector flags files that were recently modified, which raises their
// confidence during localization. The zero detector flags nothing.
type ChangeDetector interface {
	Modified(absPath string, info fs.FileInfo) bool
}

// MTimeWindowDetector flags files modified after a cutoff time.
type MTimeWindowDetector struct {
	Since time.Time
}

// Modified reports whether the file's mtime falls after the cutoff.
func (d MTimeWindowDetector) Modified(_ string, info fs.FileInfo) bool {
	return info != nil && info.ModTime().After(d.Since)
}

// Options controls index construction.
type Options struct {
	// Extensions restricts which files are indexed. Defaults to
	// .html, .htm, .css, .js.
	Extensions []string
	// Detector flags modified files. Nil flags nothing.
	Detector ChangeDetector
}

// Index is the per-run source index with reverse lookups.
type Index struct {
	Root    string
	Files   map[string]*Component // keyed by relative path
	byID    map[string][]string   // id -> relative paths
	byClass map[string][]string   // class -> relative paths
}

var defaultExtensions = []string{".html", ".htm", ".css", ".js"}

// Build walks root and indexes every matching source file.
func Build(root string, opts Options) (*Index, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	idx := &Index{
		Root:    root,
		Files:   make(map[string]*Component),
		byID:    make(map[string][]string),
		byClass: make(map[string][]string),
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories and dependency trees.
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		component, err := parseComponent(root, path)
		if err != nil {
			// A single unreadable file must not sink the whole index.
			fmt.Printf("[INDEX] Warning: skipping %s: %v\n", path, err)
			return nil
		}

		if opts.Detector != nil {
			fi, statErr := d.Info()
			if statErr == nil {
				component.Modified = opts.Detector.Modified(path, fi)
			}
		}

		idx.Files[component.Path] = component
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk source root %s: %w", root, walkErr)
	}

	idx.buildReverse()
	return idx, nil
}

// buildReverse populates the selector -> files and id -> files maps.
func (idx *Index) buildReverse() {
	paths := make([]string, 0, len(idx.Files))
	for path := range idx.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths) // deterministic reverse-index ordering

	for _, path := range paths {
		component := idx.Files[path]
		for id := range component.IDs {
			idx.byID[id] = append(idx.byID[id], path)
		}
		for class := range component.Classes {
			idx.byClass[class] = append(idx.byClass[class], path)
		}
	}
}

// IDOccurrences returns every file:line where the id appears.
func (idx *Index) IDOccurrences(id string) []Occurrence {
	return idx.occurrences(idx.byID[id], func(c *Component) []int { return c.IDs[id] })
}

// ClassOccurrences returns every file:line where the class appears.
func (idx *Index) ClassOccurrences(class string) []Occurrence {
	return idx.occurrences(idx.byClass[class], func(c *Component) []int { return c.Classes[class] })
}

func (idx *Index) occurrences(paths []string, lines func(*Component) []int) []Occurrence {
	var out []Occurrence
	for _, path := range paths {
		component := idx.Files[path]
		if component == nil {
			continue
		}
		for _, line := range lines(component) {
			out = append(out, Occurrence{Component: component, Line: line})
		}
	}
	return out
}

// ModifiedFiles returns the relative paths flagged by the change detector.
func (idx *Index) ModifiedFiles() []string {
	var out []string
	for path, component := range idx.Files {
		if component.Modified {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// KindOf classifies a file extension.
func KindOf(path string) FileKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".css":
		return KindStyle
	case ".js":
		return KindScript
	default:
		return KindMarkup
	}
}
