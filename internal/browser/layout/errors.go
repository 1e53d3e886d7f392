// internal/browser/layout/errors.go
package layout

import (
	"errors"
	"fmt"
)

// ErrorKind classifies layout failures for callers that branch on them.
type ErrorKind string

const (
	// KindNoVisualDocument: the root element resolved to display: none.
	KindNoVisualDocument ErrorKind = "NO_VISUAL_DOCUMENT"
	// KindInvariantViolation: the box tree was used in a way it does not support.
	KindInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
)

var (
	ErrNoVisualDocument   = errors.New("root element has display: none")
	ErrInvariantViolation = errors.New("layout invariant violated")
)

// Error is the error type returned by the layout engine.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("layout: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, detail string) *Error {
	sentinel := ErrInvariantViolation
	if kind == KindNoVisualDocument {
		sentinel = ErrNoVisualDocument
	}
	err := sentinel
	if detail != "" {
		err = fmt.Errorf("%w: %s", sentinel, detail)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of a layout error, or the empty string when err is
// not one.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
