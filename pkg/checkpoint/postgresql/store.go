// Package postgresql provides PostgreSQL checkpoint storage.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver
	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/sqlbase"
)

// Store implements checkpoint.Store on PostgreSQL. The latest checkpoint per
// thread lives in the checkpoints table; every save is also appended to
// checkpoint_history for audit, which the engine never reads back.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects, runs migrations and returns a ready store.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*Store, error) {
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

	return &Store{db: database, logger: logger}, nil
}

// Save durably replaces the thread's latest checkpoint and appends to the
// audit history in one transaction. lib/pq acknowledges after the server
// commit, which satisfies the durable-before-ack contract.
func (s *Store) Save(ctx context.Context, cp *models.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to marshal state: %w", err))
	}

	transaction, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to begin transaction: %w", err))
	}

	upsert := `
		INSERT INTO checkpoints (thread_id, state, node_id, agent_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (thread_id) DO UPDATE SET
			state = EXCLUDED.state,
			node_id = EXCLUDED.node_id,
			agent_type = EXCLUDED.agent_type,
			created_at = EXCLUDED.created_at
	`

	_, err = transaction.ExecContext(ctx, upsert,
		cp.ThreadID,
		stateJSON,
		cp.NodeID,
		cp.AgentType,
		cp.CreatedAt,
	)
	if err != nil {
		_ = transaction.Rollback()

		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to upsert checkpoint: %w", err))
	}

	history := `
		INSERT INTO checkpoint_history (thread_id, state, node_id, agent_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = transaction.ExecContext(ctx, history,
		cp.ThreadID,
		stateJSON,
		cp.NodeID,
		cp.AgentType,
		cp.CreatedAt,
	)
	if err != nil {
		_ = transaction.Rollback()

		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to append checkpoint history: %w", err))
	}

	err = transaction.Commit()
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to commit checkpoint: %w", err))
	}

	return nil
}

// Load retrieves the latest checkpoint for a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	query := `
		SELECT thread_id, state, node_id, agent_type, created_at
		FROM checkpoints
		WHERE thread_id = $1
	`

	row := s.db.QueryRowContext(ctx, query, threadID)

	var (
		cp        models.Checkpoint
		stateJSON []byte
	)

	err := row.Scan(&cp.ThreadID, &stateJSON, &cp.NodeID, &cp.AgentType, &cp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, checkpoint.NewStoreError("Load", threadID, checkpoint.ErrCheckpointNotFound)
		}

		return nil, checkpoint.NewStoreError("Load", threadID, fmt.Errorf("failed to scan checkpoint: %w", err))
	}

	err = json.Unmarshal(stateJSON, &cp.State)
	if err != nil {
		return nil, checkpoint.NewStoreError("Load", threadID, fmt.Errorf("failed to unmarshal state: %w", err))
	}

	return &cp, nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
