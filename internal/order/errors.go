package order

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrConcurrency means another writer saved the order or claimed the same number first.
	ErrConcurrency = errors.New("concurrent modification")
)

// TransitionError reports an operation the transition table does not allow.
type TransitionError struct {
	Op   Op
	From Status
	// To is set when AdvanceStatus got a target it does not support.
	To Status
}

func (e *TransitionError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("cannot %s of order in status %q to %q", e.Op, e.From, e.To)
	}

	return fmt.Sprintf("cannot %s order in status %q", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
