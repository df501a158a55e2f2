// Package schemas validates the structured JSON artifacts this system
// produces and consumes: fix proposals returned by the generation capability
// and run reports written by the report sink. A document is either valid or
// rejected with per-field errors; there is no partial acceptance.
package schemas

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError is one violation at a specific document field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError reports every field violation found in a document.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, fieldErr := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, fieldErr.Field, fieldErr.Message)
	}
	return sb.String()
}

// LoadError means the schema itself could not be parsed or applied, as
// opposed to the document failing it.
type LoadError struct {
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema unusable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("schema unusable: %s", e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ValidateString validates a JSON document against a JSON Schema, both given
// as string content. Used on generation output before any candidate is
// accepted from it.
func ValidateString(schema, document string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(document),
	)
	if err != nil {
		return &LoadError{Message: "cannot evaluate schema", Cause: err}
	}
	return resultError(result)
}

// ValidateFile validates a JSON document file against a schema file. Both
// paths are explicit; nothing is searched for.
func ValidateFile(schemaPath, documentPath string) error {
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaPath, err)
	}
	document, err := os.ReadFile(documentPath)
	if err != nil {
		return fmt.Errorf("failed to read document %s: %w", documentPath, err)
	}
	return ValidateString(string(schema), string(document))
}

// resultError converts a gojsonschema result into nil or a ValidationError.
func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
