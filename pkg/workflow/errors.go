package workflow

import "errors"

// ErrThreadNotFound indicates no checkpoint exists for the requested thread.
var ErrThreadNotFound = errors.New("workflow thread not found")

// ErrInvalidResumeState indicates a resume on a thread that is not paused at
// an approval node.
var ErrInvalidResumeState = errors.New("thread is not paused at an approval node")

// ErrStaleAttempt indicates a checkpoint write from an execution attempt that
// has been superseded by a timeout or cancellation. The write is rejected and
// the attempt's goroutine must stop.
var ErrStaleAttempt = errors.New("execution attempt superseded")

// IsThreadNotFound checks if an error indicates a missing thread.
func IsThreadNotFound(err error) bool {
	return errors.Is(err, ErrThreadNotFound)
}

// IsInvalidResumeState checks if an error indicates an invalid resume target.
func IsInvalidResumeState(err error) bool {
	return errors.Is(err, ErrInvalidResumeState)
}
