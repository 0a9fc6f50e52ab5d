// Package journal provides the data storage abstraction for journal notes,
// audit summaries and generated routines.
package journal

import (
	"context"

	"github.com/scribehq/scribe/pkg/protocol"
)

// Journal aggregates the domain repositories the agent handlers depend on.
type Journal interface {
	Notes() protocol.NoteRepository
	Summaries() protocol.SummaryRepository
	Routines() protocol.RoutineRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
