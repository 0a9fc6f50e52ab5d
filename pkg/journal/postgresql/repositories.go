package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
)

// NoteRepository handles note-related database operations.
type NoteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewNoteRepository creates a new note repository.
func NewNoteRepository(db *sql.DB, logger *slog.Logger) *NoteRepository {
	return &NoteRepository{db: db, logger: logger}
}

// NotesByDate retrieves all notes written on the given date (YYYY-MM-DD).
func (nr *NoteRepository) NotesByDate(ctx context.Context, date string) ([]*models.Note, error) {
	query := `
		SELECT id, to_char(date, 'YYYY-MM-DD'), content, tags, created_at
		FROM notes
		WHERE date = $1
		ORDER BY created_at
	`

	rows, err := nr.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*models.Note

	for rows.Next() {
		var (
			note     models.Note
			tagsJSON []byte
		)

		err = rows.Scan(&note.ID, &note.Date, &note.Content, &tagsJSON, &note.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}

		if len(tagsJSON) > 0 {
			err = json.Unmarshal(tagsJSON, &note.Tags)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal note tags: %w", err)
			}
		}

		notes = append(notes, &note)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}

	return notes, nil
}

// SaveNote writes a note row, used by tooling and tests to seed data.
func (nr *NoteRepository) SaveNote(ctx context.Context, note *models.Note) error {
	tagsJSON, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal note tags: %w", err)
	}

	query := `
		INSERT INTO notes (id, date, content, tags, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			content = EXCLUDED.content,
			tags = EXCLUDED.tags
	`

	_, err = nr.db.ExecContext(ctx, query, note.ID, note.Date, note.Content, tagsJSON, note.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	return nil
}

// SummaryRepository handles summary-related database operations. Saves are
// idempotent on the idempotency key.
type SummaryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *sql.DB, logger *slog.Logger) *SummaryRepository {
	return &SummaryRepository{db: db, logger: logger}
}

// SaveSummary upserts the summary on its idempotency key.
func (sr *SummaryRepository) SaveSummary(ctx context.Context, summary *models.Summary) error {
	query := `
		INSERT INTO summaries (id, date, content, risk_score, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			content = EXCLUDED.content,
			risk_score = EXCLUDED.risk_score
	`

	_, err := sr.db.ExecContext(ctx, query,
		summary.ID,
		summary.Date,
		summary.Content,
		summary.RiskScore,
		summary.IdempotencyKey,
		summary.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	return nil
}

// SummaryByIdempotencyKey retrieves a summary by its idempotency key.
func (sr *SummaryRepository) SummaryByIdempotencyKey(ctx context.Context, key string) (*models.Summary, error) {
	query := `
		SELECT id, to_char(date, 'YYYY-MM-DD'), content, risk_score, idempotency_key, created_at
		FROM summaries
		WHERE idempotency_key = $1
	`

	var summary models.Summary

	err := sr.db.QueryRowContext(ctx, query, key).Scan(
		&summary.ID,
		&summary.Date,
		&summary.Content,
		&summary.RiskScore,
		&summary.IdempotencyKey,
		&summary.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrSummaryNotFound
		}

		return nil, fmt.Errorf("failed to scan summary: %w", err)
	}

	return &summary, nil
}

// RoutineRepository handles routine-related database operations. Saves are
// idempotent on the idempotency key.
type RoutineRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRoutineRepository creates a new routine repository.
func NewRoutineRepository(db *sql.DB, logger *slog.Logger) *RoutineRepository {
	return &RoutineRepository{db: db, logger: logger}
}

// SaveRoutine upserts the routine on its idempotency key.
func (rr *RoutineRepository) SaveRoutine(ctx context.Context, routine *models.Routine) error {
	stepsJSON, err := json.Marshal(routine.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal routine steps: %w", err)
	}

	query := `
		INSERT INTO routines (id, title, steps, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			title = EXCLUDED.title,
			steps = EXCLUDED.steps
	`

	_, err = rr.db.ExecContext(ctx, query,
		routine.ID,
		routine.Title,
		stepsJSON,
		routine.IdempotencyKey,
		routine.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save routine: %w", err)
	}

	return nil
}

// RoutineByIdempotencyKey retrieves a routine by its idempotency key.
func (rr *RoutineRepository) RoutineByIdempotencyKey(ctx context.Context, key string) (*models.Routine, error) {
	query := `
		SELECT id, title, steps, idempotency_key, created_at
		FROM routines
		WHERE idempotency_key = $1
	`

	var (
		routine   models.Routine
		stepsJSON []byte
	)

	err := rr.db.QueryRowContext(ctx, query, key).Scan(
		&routine.ID,
		&routine.Title,
		&stepsJSON,
		&routine.IdempotencyKey,
		&routine.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journal.ErrRoutineNotFound
		}

		return nil, fmt.Errorf("failed to scan routine: %w", err)
	}

	err = json.Unmarshal(stepsJSON, &routine.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal routine steps: %w", err)
	}

	return &routine, nil
}
