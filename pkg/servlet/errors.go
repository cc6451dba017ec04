package servlet

import (
	"errors"
	"fmt"
)

// ErrIllegalState is matched by every *StateError.
var ErrIllegalState = errors.New("servlet: illegal state")

// ErrNotSupported is returned by contract operations a fixture does not
// implement: multipart parts, async dispatch, protocol upgrade, request
// dispatching and servlet context access.
var ErrNotSupported = errors.New("servlet: not supported in this fixture")

// StateError reports an operation that is illegal in the current lifecycle
// phase of a response, such as mutating headers after commit.
type StateError struct {
	Op     string // operation that was attempted, e.g. "SetStatus"
	Reason string // lifecycle condition that forbids it
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("servlet: %s: %s", e.Op, e.Reason)
}

// Is reports whether target is ErrIllegalState.
func (e *StateError) Is(target error) bool {
	return target == ErrIllegalState
}

// NewStateError returns a *StateError for op.
func NewStateError(op, reason string) *StateError {
	return &StateError{Op: op, Reason: reason}
}

// FormatError reports a header, cookie or query value that could not be
// parsed. Callers get the failure as is; no default is substituted.
type FormatError struct {
	Kind  string // what was being parsed: "int header", "date header", "cookie", ...
	Value string // the offending input
	Err   error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("servlet: malformed %s %q: %v", e.Kind, e.Value, e.Err)
	}
	return fmt.Sprintf("servlet: malformed %s %q", e.Kind, e.Value)
}

// Unwrap returns the underlying cause.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError returns a *FormatError wrapping err.
func NewFormatError(kind, value string, err error) *FormatError {
	return &FormatError{Kind: kind, Value: value, Err: err}
}
