package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const candidateSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["file_path", "line_number"],
	"properties": {
		"file_path": {"type": "string", "minLength": 1},
		"line_number": {"type": "integer", "minimum": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

func TestValidateString_Valid(t *testing.T) {
	doc := `{"file_path": "styles.css", "line_number": 5, "confidence": 0.85}`
	assert.NoError(t, ValidateString(candidateSchema, doc))
}

func TestValidateString_MissingRequiredField(t *testing.T) {
	err := ValidateString(candidateSchema, `{"line_number": 5}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, err.Error(), "file_path")
}

func TestValidateString_WrongType(t *testing.T) {
	err := ValidateString(candidateSchema, `{"file_path": "styles.css", "line_number": "five"}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Errors)
}

func TestValidateString_OutOfRange(t *testing.T) {
	err := ValidateString(candidateSchema, `{"file_path": "styles.css", "line_number": 5, "confidence": 1.5}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "confidence")
}

func TestValidateString_BrokenSchema(t *testing.T) {
	err := ValidateString(`{"type": `, `{"file_path": "styles.css"}`)
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "candidate.schema.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(candidateSchema), 0o644))

	t.Run("valid document", func(t *testing.T) {
		docPath := filepath.Join(dir, "valid.json")
		require.NoError(t, os.WriteFile(docPath, []byte(`{"file_path": "styles.css", "line_number": 5}`), 0o644))
		assert.NoError(t, ValidateFile(schemaPath, docPath))
	})

	t.Run("invalid document", func(t *testing.T) {
		docPath := filepath.Join(dir, "invalid.json")
		require.NoError(t, os.WriteFile(docPath, []byte(`{"line_number": 0}`), 0o644))

		err := ValidateFile(schemaPath, docPath)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.NotEmpty(t, validationErr.Errors)
	})

	t.Run("missing schema file", func(t *testing.T) {
		err := ValidateFile(filepath.Join(dir, "nope.schema.json"), filepath.Join(dir, "valid.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema")
	})

	t.Run("missing document file", func(t *testing.T) {
		err := ValidateFile(schemaPath, filepath.Join(dir, "nope.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document")
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "candidates.0.confidence", Message: "must be at most 1"},
			{Field: "(root)", Message: "candidates is required"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "candidates.0.confidence")
	assert.Contains(t, msg, "(root)")
}
