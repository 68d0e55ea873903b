package document

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage marks operations attempted without a required precondition.
	// It is always detected locally, before any request is made.
	ErrUsage = errors.New("usage error")

	ErrNoDatabase    = fmt.Errorf("%w: document is not bound to a database", ErrUsage)
	ErrNoID          = fmt.Errorf("%w: document has no id", ErrUsage)
	ErrNoDestination = fmt.Errorf("%w: destination has no id", ErrUsage)

	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document update conflict")

	// ErrPartialMove is reported (through MoveError) when the copy step of a
	// move succeeded but the source could not be deleted.
	ErrPartialMove = errors.New("move left the source document in place")
)

// TransportError is a failure of the underlying transport: either the request
// could not be performed (Err set) or the store answered with a status the
// core does not interpret (Status and Reason set).
type TransportError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Reason)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MoveError reports a move whose copy succeeded but whose source deletion
// failed. Both the source and the destination exist in the store afterwards.
type MoveError struct {
	Source      string
	Destination string
	Err         error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s to %s: copied, but deleting the source failed: %v", e.Source, e.Destination, e.Err)
}

func (e *MoveError) Unwrap() []error {
	return []error{ErrPartialMove, e.Err}
}
