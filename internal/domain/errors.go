package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by harness components.
var (
	// ErrInvalidConfiguration indicates that a component's configuration
	// is invalid or incomplete. It is fatal at construction time, before
	// any case runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// LineError reports a failure tied to a specific line of an input file,
// such as a malformed JSONL record. Line numbers are 1-based.
type LineError struct {
	// Line is the 1-based line number where the failure occurred.
	Line int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface for LineError.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *LineError) Unwrap() error { return e.Err }

// NewLineError creates a LineError for the given 1-based line number.
func NewLineError(line int, err error) *LineError {
	return &LineError{Line: line, Err: err}
}
