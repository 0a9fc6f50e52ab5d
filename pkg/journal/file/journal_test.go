package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
)

func TestNoteRepository_NotesByDate(t *testing.T) {
	repo := NewNoteRepository(t.TempDir())
	ctx := context.Background()

	require.NoError(t, repo.SaveNote(ctx, &models.Note{
		ID: "n1", Date: "2024-01-15", Content: "Long walk before work.", CreatedAt: time.Now(),
	}))
	require.NoError(t, repo.SaveNote(ctx, &models.Note{
		ID: "n2", Date: "2024-01-15", Content: "Skipped lunch again.", Tags: []string{"health"},
	}))
	require.NoError(t, repo.SaveNote(ctx, &models.Note{
		ID: "n3", Date: "2024-01-16", Content: "Slept in.",
	}))

	notes, err := repo.NotesByDate(ctx, "2024-01-15")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	notes, err = repo.NotesByDate(ctx, "2024-01-17")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestNoteRepository_MissingDirectoryIsEmpty(t *testing.T) {
	repo := NewNoteRepository(t.TempDir())

	notes, err := repo.NotesByDate(context.Background(), "2024-01-15")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestSummaryRepository_SaveAndLookup(t *testing.T) {
	repo := NewSummaryRepository(t.TempDir())
	ctx := context.Background()

	summary := &models.Summary{
		ID:             "s1",
		Date:           "2024-01-15",
		Content:        "A calm and productive day.",
		RiskScore:      2,
		IdempotencyKey: "thread-1:save_summary",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.SaveSummary(ctx, summary))

	loaded, err := repo.SummaryByIdempotencyKey(ctx, "thread-1:save_summary")
	require.NoError(t, err)
	assert.Equal(t, summary.ID, loaded.ID)
	assert.Equal(t, summary.Content, loaded.Content)

	// Same key overwrites instead of duplicating.
	summary.Content = "Revised."
	require.NoError(t, repo.SaveSummary(ctx, summary))

	loaded, err = repo.SummaryByIdempotencyKey(ctx, "thread-1:save_summary")
	require.NoError(t, err)
	assert.Equal(t, "Revised.", loaded.Content)
}

func TestSummaryRepository_NotFound(t *testing.T) {
	repo := NewSummaryRepository(t.TempDir())

	_, err := repo.SummaryByIdempotencyKey(context.Background(), "thread-x:save_summary")
	require.Error(t, err)
	assert.True(t, journal.IsNotFound(err))
}

func TestSummaryRepository_RejectsUnsafeKeys(t *testing.T) {
	repo := NewSummaryRepository(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", "a\\b"} {
		_, err := repo.SummaryByIdempotencyKey(ctx, key)
		assert.Error(t, err, "key %q", key)

		err = repo.SaveSummary(ctx, &models.Summary{ID: "s", IdempotencyKey: key})
		assert.Error(t, err, "key %q", key)
	}
}

func TestRoutineRepository_SaveAndLookup(t *testing.T) {
	repo := NewRoutineRepository(t.TempDir())
	ctx := context.Background()

	routine := &models.Routine{
		ID:             "r1",
		Title:          "Balanced weekday",
		Steps:          []string{"Wake at 7", "Short walk"},
		IdempotencyKey: "thread-1:save_routine",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.SaveRoutine(ctx, routine))

	loaded, err := repo.RoutineByIdempotencyKey(ctx, "thread-1:save_routine")
	require.NoError(t, err)
	assert.Equal(t, routine.Title, loaded.Title)
	assert.Equal(t, routine.Steps, loaded.Steps)

	_, err = repo.RoutineByIdempotencyKey(ctx, "thread-2:save_routine")
	require.Error(t, err)
	assert.True(t, journal.IsNotFound(err))
}

func TestJournal_Repositories(t *testing.T) {
	j := NewJournal("file://" + t.TempDir())

	assert.NotNil(t, j.Notes())
	assert.NotNil(t, j.Summaries())
	assert.NotNil(t, j.Routines())
	assert.NoError(t, j.HealthCheck(context.Background()))
	assert.NoError(t, j.Close(context.Background()))
}
