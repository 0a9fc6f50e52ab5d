package checkpoint

import (
	"errors"
	"fmt"
)

// ErrCheckpointNotFound indicates no checkpoint exists for the given thread.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// StoreError wraps checkpoint store failures with operation context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "Load", "Save")
	ThreadID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, threadID string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		ThreadID: threadID,
		Err:      err,
	}
}

// IsCheckpointNotFound checks if an error indicates a missing checkpoint.
func IsCheckpointNotFound(err error) bool {
	return errors.Is(err, ErrCheckpointNotFound)
}
