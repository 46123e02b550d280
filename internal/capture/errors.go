package capture

import "fmt"

// DecodeError reports a selected file that could not be turned into a preview
type DecodeError struct {
	// Path of the offending file
	Path string `json:"path"`

	// Reason is a short human-readable explanation
	Reason string `json:"reason"`

	// Underlying error that caused this error
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot read %s: %s: %v", e.Path, e.Reason, e.Cause)
	}
	return fmt.Sprintf("cannot read %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewDecodeError creates a decode error
func NewDecodeError(path, reason string, cause error) *DecodeError {
	return &DecodeError{Path: path, Reason: reason, Cause: cause}
}
