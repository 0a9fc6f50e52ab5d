package journal

import "errors"

// ErrSummaryNotFound indicates no summary exists for the given key.
var ErrSummaryNotFound = errors.New("summary not found")

// ErrRoutineNotFound indicates no routine exists for the given key.
var ErrRoutineNotFound = errors.New("routine not found")

// IsNotFound checks if an error indicates a missing summary or routine.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSummaryNotFound) || errors.Is(err, ErrRoutineNotFound)
}
