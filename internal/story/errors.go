package story

import (
	"errors"
	"fmt"
)

// ErrEmptyText rejects add/edit operations whose text is blank after trimming.
// Callers treat it as a silent no-op, not a user-facing failure.
var ErrEmptyText = errors.New("comment text is empty")

// ErrNoTargets rejects bulk operations invoked with an empty target set
var ErrNoTargets = errors.New("no target sentences")

// ValidationError reports a malformed import document. The import is aborted
// atomically; no partial story is ever returned alongside one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid story document: " + e.Reason
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a mutator call referencing a sentence or comment id
// that does not exist in the container. This indicates a logic fault in the
// caller rather than a recoverable user error.
type NotFoundError struct {
	Kind string // "sentence" or "comment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}
