package ingest

import (
	"errors"
	"fmt"
)

// ErrPersistence marks a failed write. The underlying cause is logged, not
// returned to callers.
var ErrPersistence = errors.New("failed to save bookmark")

// InputError is a request rejected before any lookup or model call.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

// DuplicateError reports an existing bookmark matching the submitted URL.
type DuplicateError struct {
	MatchID    string
	Confidence int
	Exact      bool // found by URL comparison, without the model
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate bookmark detected (match %s, confidence %d)", e.MatchID, e.Confidence)
}
