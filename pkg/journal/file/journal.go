// Package file provides file-based journal storage for notes, summaries and
// routines.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/protocol"
)

// Journal implements the journal.Journal interface using the file system.
type Journal struct {
	root     string
	notes    *NoteRepository
	summary  *SummaryRepository
	routines *RoutineRepository
}

// NewJournal creates a file-backed journal rooted at the given directory.
func NewJournal(root string) journal.Journal {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Journal{
		root:     cleanRoot,
		notes:    NewNoteRepository(cleanRoot),
		summary:  NewSummaryRepository(cleanRoot),
		routines: NewRoutineRepository(cleanRoot),
	}
}

func (j *Journal) Notes() protocol.NoteRepository {
	return j.notes
}

func (j *Journal) Summaries() protocol.SummaryRepository {
	return j.summary
}

func (j *Journal) Routines() protocol.RoutineRepository {
	return j.routines
}

// HealthCheck verifies the root directory exists.
func (j *Journal) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(j.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file storage there is nothing to
// clean up.
func (j *Journal) Close(_ context.Context) error {
	return nil
}
