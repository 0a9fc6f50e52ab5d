package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribehq/scribe/pkg/models"
)

// NoteRepository reads journal notes from the file system, one JSON document
// per note under <root>/notes.
type NoteRepository struct {
	root string
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(root string) *NoteRepository {
	return &NoteRepository{root: root}
}

// NotesByDate retrieves all notes written on the given date (YYYY-MM-DD).
func (nr *NoteRepository) NotesByDate(ctx context.Context, date string) ([]*models.Note, error) {
	notesDir := filepath.Join(nr.root, "notes")

	if _, err := os.Stat(notesDir); os.IsNotExist(err) {
		return []*models.Note{}, nil
	}

	entries, err := os.ReadDir(notesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read notes directory: %w", err)
	}

	var notes []*models.Note

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(notesDir, entry.Name())) // #nosec G304 -- paths come from ReadDir
		if err != nil {
			continue
		}

		var note models.Note

		err = json.Unmarshal(data, &note)
		if err != nil {
			// Skip invalid files
			continue
		}

		if note.Date == date {
			notes = append(notes, &note)
		}
	}

	return notes, nil
}

// SaveNote writes a note document, used by tooling and tests to seed data.
func (nr *NoteRepository) SaveNote(ctx context.Context, note *models.Note) error {
	notesDir := filepath.Join(nr.root, "notes")

	err := os.MkdirAll(notesDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create notes directory: %w", err)
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal note %s: %w", note.ID, err)
	}

	err = os.WriteFile(filepath.Join(notesDir, note.ID+".json"), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write note %s: %w", note.ID, err)
	}

	return nil
}
