package pipeline

import (
	"errors"
	"fmt"
)

// InputError reports a job that cannot run as given: no keywords, no
// targets, unknown locations. It is returned before any provider call.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "invalid input: " + e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }

func inputErrorf(format string, args ...interface{}) error {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

// IsInputError reports whether err is or wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
