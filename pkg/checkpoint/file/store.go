// Package file provides file-based checkpoint storage, one JSON document per
// thread under a root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/models"
)

// Store implements checkpoint.Store using the file system.
type Store struct {
	root string
}

// NewStore creates a file-backed checkpoint store rooted at the given
// directory. A "file://" prefix on root is accepted and stripped.
func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

// validateThreadID validates that the thread ID is safe for file operations.
func (s *Store) validateThreadID(threadID string) error {
	if threadID == "" {
		return errors.New("thread ID cannot be empty")
	}

	// Check for path traversal attempts
	if strings.Contains(threadID, "..") || strings.Contains(threadID, "/") || strings.Contains(threadID, "\\") {
		return errors.New("thread ID contains invalid characters")
	}

	return nil
}

func (s *Store) checkpointPath(threadID string) string {
	return filepath.Join(s.root, "checkpoints", threadID+".json")
}

// Save durably replaces the thread's latest checkpoint. The document is
// written to a temporary file, synced, then renamed so a crash mid-write
// never leaves a truncated checkpoint behind.
func (s *Store) Save(ctx context.Context, cp *models.Checkpoint) error {
	if err := s.validateThreadID(cp.ThreadID); err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, err)
	}

	checkpointsDir := filepath.Join(s.root, "checkpoints")

	err := os.MkdirAll(checkpointsDir, 0750)
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to create checkpoints directory: %w", err))
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to marshal checkpoint: %w", err))
	}

	tmpFile, err := os.CreateTemp(checkpointsDir, cp.ThreadID+".*.tmp")
	if err != nil {
		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to create temp file: %w", err))
	}

	_, err = tmpFile.Write(data)
	if err == nil {
		err = tmpFile.Sync()
	}

	closeErr := tmpFile.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpFile.Name())

		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to write checkpoint: %w", err))
	}

	err = os.Rename(tmpFile.Name(), s.checkpointPath(cp.ThreadID))
	if err != nil {
		_ = os.Remove(tmpFile.Name())

		return checkpoint.NewStoreError("Save", cp.ThreadID, fmt.Errorf("failed to replace checkpoint: %w", err))
	}

	return nil
}

// Load retrieves the latest checkpoint for a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	if err := s.validateThreadID(threadID); err != nil {
		return nil, checkpoint.NewStoreError("Load", threadID, err)
	}

	data, err := os.ReadFile(s.checkpointPath(threadID)) // #nosec G304 -- path is validated and constructed safely
	if err != nil {
		if os.IsNotExist(err) {
			return nil, checkpoint.NewStoreError("Load", threadID, checkpoint.ErrCheckpointNotFound)
		}

		return nil, checkpoint.NewStoreError("Load", threadID, fmt.Errorf("failed to read checkpoint: %w", err))
	}

	var cp models.Checkpoint

	err = json.Unmarshal(data, &cp)
	if err != nil {
		return nil, checkpoint.NewStoreError("Load", threadID, fmt.Errorf("failed to unmarshal checkpoint: %w", err))
	}

	return &cp, nil
}

// HealthCheck verifies the root directory exists.
func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file storage there is nothing to
// clean up.
func (s *Store) Close(_ context.Context) error {
	return nil
}
