// Package events defines event types and structures for agent execution
// lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/scribehq/scribe/pkg/models"
)

type EventType string

// Kafka topic for execution events.
const Topic = "scribe.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"
	ExecutionTimeoutEvent   EventType = "execution.timeout"
	ExecutionPausedEvent    EventType = "execution.paused"
	ExecutionResumedEvent   EventType = "execution.resumed"

	// Node events.
	NodeFinishedEvent EventType = "node.finished"
	NodeRetriedEvent  EventType = "node.retried"
	NodeFailedEvent   EventType = "node.failed"
)

type BaseEvent struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	ThreadID  string           `json:"thread_id"`
	AgentType models.AgentType `json:"agent_type"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, threadID string, agentType models.AgentType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ThreadID:  threadID,
		AgentType: agentType,
		Metadata:  make(map[string]any),
	}
}

type ExecutionStarted struct {
	BaseEvent

	StartNode NodeRef        `json:"start_node"`
	Input     map[string]any `json:"input,omitempty"`
	Resumed   bool           `json:"resumed"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	DurationMs   int64          `json:"duration_ms"`
	RetryCount   int            `json:"retry_count"`
	FinalResults map[string]any `json:"final_results,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	DurationMs int64   `json:"duration_ms"`
	RetryCount int     `json:"retry_count"`
	Error      string  `json:"error"`
	FailedNode NodeRef `json:"failed_node"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionCancelled struct {
	BaseEvent

	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by,omitempty"`
}

func (e ExecutionCancelled) GetType() EventType {
	return ExecutionCancelledEvent
}

type ExecutionTimeout struct {
	BaseEvent

	DurationMs     int64   `json:"duration_ms"`
	TimeoutLimitMs int64   `json:"timeout_limit_ms"`
	StuckNode      NodeRef `json:"stuck_node"`
}

func (e ExecutionTimeout) GetType() EventType {
	return ExecutionTimeoutEvent
}

type ExecutionPaused struct {
	BaseEvent

	PausedAtNode NodeRef        `json:"paused_at_node"`
	ApprovalData map[string]any `json:"approval_data,omitempty"`
}

func (e ExecutionPaused) GetType() EventType {
	return ExecutionPausedEvent
}

type ExecutionResumed struct {
	BaseEvent

	Approved  bool    `json:"approved"`
	ResumedBy string  `json:"resumed_by,omitempty"`
	NextNode  NodeRef `json:"next_node"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type NodeFinished struct {
	BaseEvent

	Node       NodeRef `json:"node"`
	NextNode   NodeRef `json:"next_node"`
	DurationMs int64   `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

type NodeRetried struct {
	BaseEvent

	Node       NodeRef `json:"node"`
	RetryCount int     `json:"retry_count"`
	BackoffMs  int64   `json:"backoff_ms"`
	Error      string  `json:"error"`
}

func (e NodeRetried) GetType() EventType {
	return NodeRetriedEvent
}

type NodeFailed struct {
	BaseEvent

	Node       NodeRef `json:"node"`
	RetryCount int     `json:"retry_count"`
	Error      string  `json:"error"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

// NodeRef is the serialized form of a node ID inside events.
type NodeRef = models.NodeID
