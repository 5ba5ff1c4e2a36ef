package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOp is returned by Back on the first step. Callers absorb it.
	ErrNoOp = errors.New("wizard: already at the first step")

	// ErrSubmitPending is returned by Advance while the terminal action of
	// an earlier submit has not returned yet.
	ErrSubmitPending = errors.New("wizard: submit already in progress")
)

// ConfigurationError reports an invalid step list. It is a programming
// error and fatal to construction.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "wizard: invalid configuration: " + e.Reason
}

// SubmitError wraps a failure of the terminal action. The wizard does not
// retry; the caller decides how to surface it.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("wizard: submit failed: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
