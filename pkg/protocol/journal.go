package protocol

import (
	"context"

	"github.com/scribehq/scribe/pkg/models"
)

// NoteRepository fetches journal entries for domain handlers. The engine
// treats it as a black box that may fail and be retried.
type NoteRepository interface {
	NotesByDate(ctx context.Context, date string) ([]*models.Note, error)
}

// SummaryRepository persists daily-audit summaries. SaveSummary must be
// idempotent on Summary.IdempotencyKey: re-running the save node for the
// same thread and node overwrites rather than duplicates.
type SummaryRepository interface {
	SaveSummary(ctx context.Context, summary *models.Summary) error
	SummaryByIdempotencyKey(ctx context.Context, key string) (*models.Summary, error)
}

// RoutineRepository persists generated routines, idempotent on
// Routine.IdempotencyKey.
type RoutineRepository interface {
	SaveRoutine(ctx context.Context, routine *models.Routine) error
	RoutineByIdempotencyKey(ctx context.Context, key string) (*models.Routine, error)
}
