package protocol

import (
	"context"
	"time"

	"github.com/scribehq/scribe/pkg/models"
)

// ExecutionMetrics is the telemetry recorded once per terminal or paused
// execution attempt.
type ExecutionMetrics struct {
	ThreadID   string
	AgentType  models.AgentType
	Status     models.ExecutionStatus
	Node       models.NodeID
	Duration   time.Duration
	RetryCount int
	Input      map[string]any
	Output     map[string]any
	Error      string
}

// MetricsRecorder receives execution telemetry. Implementations are invoked
// fire-and-forget: the engine logs recording failures and never lets them
// block or fail the main path.
type MetricsRecorder interface {
	RecordExecution(ctx context.Context, metrics ExecutionMetrics) error
}
