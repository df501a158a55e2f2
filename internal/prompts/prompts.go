// Package prompts holds the generation prompt templates of the healing
// pipeline, embedded at compile time. Templates carry {{.Key}} placeholders
// filled in by Format.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed healing.json
var healingJSON []byte

var (
	templatesOnce sync.Once
	templates     map[string]string
	templatesErr  error
)

func load() (map[string]string, error) {
	templatesOnce.Do(func() {
		templatesErr = json.Unmarshal(healingJSON, &templates)
	})
	if templatesErr != nil {
		return nil, fmt.Errorf("embedded prompt templates unreadable: %w", templatesErr)
	}
	return templates, nil
}

// Get returns the template registered under key. A missing key is a
// programming error surfaced as an error so callers can degrade to
// heuristics-only operation instead of panicking mid-run.
func Get(key string) (string, error) {
	all, err := load()
	if err != nil {
		return "", err
	}
	template, ok := all[key]
	if !ok {
		return "", fmt.Errorf("no prompt template %q", key)
	}
	return template, nil
}

// Format replaces every {{.Key}} placeholder with its value from data.
// Placeholders without a value are left in place, which makes a missing
// field visible in the outgoing prompt rather than silently blank.
func Format(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
