package fixgen

import "fmt"

// GenerationError wraps failures while producing fix candidates.
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fix generation failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fix generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
