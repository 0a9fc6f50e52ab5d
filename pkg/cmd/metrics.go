package cmd

import (
	"log/slog"

	"github.com/scribehq/scribe/pkg/eventbus"
	"github.com/scribehq/scribe/pkg/metrics"
	"github.com/scribehq/scribe/pkg/protocol"
)

// NewMetricsRecorder publishes execution telemetry to the event bus when one
// is configured, and falls back to structured logging.
func NewMetricsRecorder(bus eventbus.EventPublisher, logger *slog.Logger) protocol.MetricsRecorder {
	if bus == nil {
		return metrics.NewLogRecorder(logger)
	}

	return metrics.NewEventBusRecorder(bus, logger)
}
