package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownKeys(t *testing.T) {
	for _, key := range []string{"classify-region", "generate-fix-candidates"} {
		t.Run(key, func(t *testing.T) {
			template, err := Get(key)
			require.NoError(t, err)
			assert.NotEmpty(t, template)
		})
	}
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestGet_FixCandidatesTemplateCarriesPlaceholders(t *testing.T) {
	template, err := Get("generate-fix-candidates")
	require.NoError(t, err)

	for _, placeholder := range []string{"{{.SurfaceName}}", "{{.Classification}}", "{{.CodeContext}}"} {
		assert.Contains(t, template, placeholder)
	}
}

func TestFormat(t *testing.T) {
	out := Format("Surface {{.Name}} changed: {{.Description}}", map[string]string{
		"Name":        "home",
		"Description": "header color shifted",
	})

	assert.Equal(t, "Surface home changed: header color shifted", out)
}

func TestFormat_UnknownPlaceholderStaysVisible(t *testing.T) {
	out := Format("Surface {{.Name}} at {{.Missing}}", map[string]string{"Name": "home"})

	assert.Contains(t, out, "{{.Missing}}")
	assert.False(t, strings.Contains(out, "{{.Name}}"))
}

func TestFormat_RepeatedPlaceholder(t *testing.T) {
	out := Format("{{.X}} and {{.X}}", map[string]string{"X": "v"})
	assert.Equal(t, "v and v", out)
}
