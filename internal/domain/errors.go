package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCondition signals a condition whose value does not fit its field.
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrSearchFailure signals a resource or I/O fault inside the search subsystem.
	ErrSearchFailure = errors.New("search subsystem failure")
	// ErrTooManyClauses signals a query that still exceeds the engine's clause
	// ceiling after the ceiling was raised.
	ErrTooManyClauses = errors.New(
		"search query is too complex; avoid using wildcards as standalone terms",
	)
	// ErrIndexClosed signals an operation on a shut down search subsystem.
	ErrIndexClosed = errors.New("search index is closed")
	// ErrDrainInterrupted signals that waiting for outstanding leases was abandoned.
	ErrDrainInterrupted = errors.New("interrupted while waiting for searchers to drain")
)

// SearchError wraps any lease, execute, or admin fault into ErrSearchFailure
// while keeping the original cause reachable.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSearchFailure.Error(), e.Op, e.Err)
}

func (e *SearchError) Unwrap() []error { return []error{ErrSearchFailure, e.Err} }

// NewSearchError creates a search failure for the given operation.
func NewSearchError(op string, err error) error {
	return &SearchError{Op: op, Err: err}
}
