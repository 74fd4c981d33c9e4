package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUTF8 is returned by Read when a command produces output
	// that is not valid UTF-8 text.
	ErrInvalidUTF8 = errors.New("output is not valid UTF-8")

	// ErrAlreadyWaited is returned by Handle.Wait after a previous call
	// already consumed the result.
	ErrAlreadyWaited = errors.New("wait was already called on this handle")
)

// StatusError reports that a command exited with a non-zero status in a
// part of the expression that wasn't marked Unchecked.
type StatusError struct {
	// Output holds the full result of the run, including any captured
	// stdout and stderr.
	Output *Output
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Output.Status)
}
