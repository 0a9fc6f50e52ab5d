// Package postgresql provides PostgreSQL journal storage.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/sqlbase"
)

// Journal implements the journal.Journal interface on PostgreSQL.
type Journal struct {
	db       *sql.DB
	logger   *slog.Logger
	notes    *NoteRepository
	summary  *SummaryRepository
	routines *RoutineRepository
}

// NewJournal connects, runs migrations and returns a ready journal.
func NewJournal(ctx context.Context, logger *slog.Logger, databaseURL string) (*Journal, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Journal{
		db:       database,
		logger:   logger,
		notes:    NewNoteRepository(database, logger),
		summary:  NewSummaryRepository(database, logger),
		routines: NewRoutineRepository(database, logger),
	}, nil
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

// HealthCheck verifies the database connection is healthy.
func (j *Journal) HealthCheck(ctx context.Context) error {
	err := j.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (j *Journal) Close(_ context.Context) error {
	if j.db != nil {
		err := j.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

var _ journal.Journal = (*Journal)(nil)
