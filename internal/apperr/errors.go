// Package apperr defines the error kinds surfaced by the record engine.
package apperr

import (
	"errors"
	"fmt"
)

// ErrRecord is the umbrella category; every kind below wraps it.
var ErrRecord = errors.New("adr")

var (
	ErrMissingTitle       = fmt.Errorf("%w: missing title", ErrRecord)
	ErrInvalidReference   = fmt.Errorf("%w: invalid reference", ErrRecord)
	ErrUnknownRecord      = fmt.Errorf("%w: unknown record", ErrRecord)
	ErrDuplicateRecord    = fmt.Errorf("%w: duplicate record", ErrRecord)
	ErrAlreadyInitialized = fmt.Errorf("%w: already initialized", ErrRecord)
	ErrUninitializedStore = fmt.Errorf("%w: store not initialized", ErrRecord)
)

// Error carries a human-readable message while still matching its kind
// with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// New returns an error of the given kind with a formatted message.
func New(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
