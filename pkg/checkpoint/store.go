// Package checkpoint provides the durable storage abstraction for workflow
// thread snapshots.
package checkpoint

import (
	"context"

	"github.com/scribehq/scribe/pkg/models"
)

// Store persists the latest checkpoint per thread. Save must not acknowledge
// before the write is durable: the engine's resume-ordering guarantee depends
// on a Load after an acknowledged Save observing the saved snapshot.
type Store interface {
	// Load returns the most recent checkpoint for a thread, or
	// ErrCheckpointNotFound when the thread is unknown.
	Load(ctx context.Context, threadID string) (*models.Checkpoint, error)

	// Save durably replaces the thread's latest checkpoint.
	Save(ctx context.Context, checkpoint *models.Checkpoint) error

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
