package fixapply

import "fmt"

// ApplyError wraps I/O failures while applying or reverting a fix. Stale
// content is not an error: it surfaces as an ApplyFailed record instead.
type ApplyError struct {
	FilePath string
	Message  string
	Cause    error
}

func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fix apply failed on %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("fix apply failed on %s: %s", e.FilePath, e.Message)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}
