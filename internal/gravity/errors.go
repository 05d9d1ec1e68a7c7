package gravity

import (
	"errors"
	"fmt"
)

var (
	// ErrCoincident indicates two positions that must differ are identical.
	ErrCoincident = errors.New("gravity: coincident positions (zero separation)")

	// ErrEmpty indicates a query or insertion against a system with no bodies.
	ErrEmpty = errors.New("gravity: system has no bodies")

	// ErrUnknownMassClass indicates a mass class outside the preset table.
	ErrUnknownMassClass = errors.New("gravity: unknown mass class")

	// ErrUnknownHandle indicates a handle that was never issued by the engine.
	ErrUnknownHandle = errors.New("gravity: unknown body handle")

	// ErrInvalidBody indicates a non-positive mass or a non-finite field.
	ErrInvalidBody = errors.New("gravity: invalid body")
)

// GeometryError reports a degenerate geometry and the bodies involved.
// B is NoHandle when the second party is a synthetic body such as the
// barycenter, and A is NoHandle for a candidate that was never inserted.
type GeometryError struct {
	Op   string
	A, B Handle
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: bodies %s and %s: %v", e.Op, e.A, e.B, ErrCoincident)
}

func (e *GeometryError) Unwrap() error {
	return ErrCoincident
}
