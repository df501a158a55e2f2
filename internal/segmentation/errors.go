package segmentation

import "fmt"

// MaskError represents a failure to locate or decode a diff image. Callers
// treat it as "skip this surface's localization", never as fatal to the run.
type MaskError struct {
	Path    string
	Message string
	Cause   error
}

func (e *MaskError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mask error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("mask error for %s: %s", e.Path, e.Message)
}

func (e *MaskError) Unwrap() error {
	return e.Cause
}
