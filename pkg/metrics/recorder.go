// Package metrics publishes execution telemetry over the event bus.
package metrics

import (
	"context"
	"log/slog"

	"github.com/scribehq/scribe/pkg/eventbus"
	"github.com/scribehq/scribe/pkg/events"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
)

// EventBusRecorder implements protocol.MetricsRecorder by publishing
// lifecycle events. It is transport only: the engine is responsible for
// calling it fire-and-forget.
type EventBusRecorder struct {
	bus    eventbus.EventPublisher
	logger *slog.Logger
}

// NewEventBusRecorder creates a recorder publishing to the given bus.
func NewEventBusRecorder(bus eventbus.EventPublisher, logger *slog.Logger) *EventBusRecorder {
	return &EventBusRecorder{
		bus:    bus,
		logger: logger.With("module", "metrics_recorder"),
	}
}

// RecordExecution publishes one terminal event per finished execution
// attempt.
func (r *EventBusRecorder) RecordExecution(ctx context.Context, m protocol.ExecutionMetrics) error {
	var event eventbus.Event

	switch m.Status {
	case models.ExecutionStatusCompleted:
		event = events.ExecutionCompleted{
			BaseEvent:    events.NewBaseEvent(events.ExecutionCompletedEvent, m.ThreadID, m.AgentType),
			DurationMs:   m.Duration.Milliseconds(),
			RetryCount:   m.RetryCount,
			FinalResults: m.Output,
		}
	case models.ExecutionStatusFailed:
		event = events.ExecutionFailed{
			BaseEvent:  events.NewBaseEvent(events.ExecutionFailedEvent, m.ThreadID, m.AgentType),
			DurationMs: m.Duration.Milliseconds(),
			RetryCount: m.RetryCount,
			Error:      m.Error,
			FailedNode: m.Node,
		}
	case models.ExecutionStatusPaused:
		event = events.ExecutionPaused{
			BaseEvent:    events.NewBaseEvent(events.ExecutionPausedEvent, m.ThreadID, m.AgentType),
			PausedAtNode: m.Node,
			ApprovalData: m.Output,
		}
	default:
		return nil
	}

	return r.bus.Publish(ctx, m.ThreadID, event)
}

// LogRecorder implements protocol.MetricsRecorder with structured logging
// only, for environments without an event bus.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a log-only recorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger.With("module", "metrics_recorder")}
}

func (r *LogRecorder) RecordExecution(ctx context.Context, m protocol.ExecutionMetrics) error {
	r.logger.InfoContext(ctx, "Execution recorded",
		"thread_id", m.ThreadID,
		"agent_type", m.AgentType,
		"status", m.Status,
		"duration_ms", m.Duration.Milliseconds(),
		"retry_count", m.RetryCount,
		"error", m.Error,
	)

	return nil
}
