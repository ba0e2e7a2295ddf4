package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigInvalid is returned from New when the supplied Config violates a
// construction-time constraint (negative bound, max < initial, and so on).
var ErrConfigInvalid = errors.New("activepool: invalid configuration")

// ErrShuttingDown is returned by admission, wait and batch operations that
// observe the pool transitioning to or already in the stopped state.
var ErrShuttingDown = errors.New("activepool: pool is shutting down")

// ItemError wraps the error returned or panicked by a user callable. It is
// stored on the WorkItem that produced it and is never propagated to a
// caller directly; it is observed via WorkItem.Error().
type ItemError struct {
	ItemName string
	Inner    error
}

func (e *ItemError) Error() string {
	if e.ItemName != "" {
		return fmt.Sprintf("activepool: item %q failed: %v", e.ItemName, e.Inner)
	}
	return fmt.Sprintf("activepool: item failed: %v", e.Inner)
}

func (e *ItemError) Unwrap() error { return e.Inner }

// AggregateError bundles the errors of every failed item in a ChildPool's
// tracked set. It is raised only from ChildPool.ThrowAggregate, never
// surfaced implicitly.
type AggregateError struct {
	Errors []*ItemError
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ie := range e.Errors {
		parts[i] = ie.Error()
	}
	return fmt.Sprintf("activepool: %d item(s) failed: [%s]", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the wrapped item errors to errors.Is/errors.As chains.
func (e *AggregateError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, ie := range e.Errors {
		out[i] = ie
	}
	return out
}
