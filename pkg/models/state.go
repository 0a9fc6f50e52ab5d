// Package models defines the core domain models for agent workflow execution.
package models

import (
	"encoding/json"
	"time"
)

// AgentType identifies a workflow kind. Each agent type owns a closed set of
// node names registered at startup.
type AgentType string

const (
	AgentTypeDailyAudit        AgentType = "daily_audit"
	AgentTypeRoutineGeneration AgentType = "routine_generation"
)

// ExecutionStatus represents the lifecycle state of a workflow thread.
// Completed and failed are terminal.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusPaused    ExecutionStatus = "paused"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsTerminal reports whether no further node may run for this status.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// WorkflowState is the data carried through a single workflow thread. It is
// mutated only by node handlers and by the resume decision step; every
// mutation that moves CurrentNode is checkpointed before the engine acts on
// it.
type WorkflowState struct {
	ThreadID         string          `json:"thread_id"`
	AgentType        AgentType       `json:"agent_type"`
	Status           ExecutionStatus `json:"status"`
	CurrentNode      NodeID          `json:"current_node"`
	RetryCount       int             `json:"retry_count"`
	RequiresApproval bool            `json:"requires_approval"`
	Approved         bool            `json:"approved"`
	ErrorMessage     string          `json:"error_message,omitempty"`
	Payload          map[string]any  `json:"payload,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the state. Handlers receive clones so an
// abandoned execution attempt cannot mutate state another attempt owns.
func (s *WorkflowState) Clone() *WorkflowState {
	clone := *s
	if s.Payload != nil {
		data, err := json.Marshal(s.Payload)
		if err == nil {
			var payload map[string]any

			if json.Unmarshal(data, &payload) == nil {
				clone.Payload = payload
			}
		}
	}

	return &clone
}

// PayloadString reads a string payload field, returning "" when absent.
func (s *WorkflowState) PayloadString(key string) string {
	v, _ := s.Payload[key].(string)

	return v
}

// SetPayload writes a payload field, allocating the map on first use.
func (s *WorkflowState) SetPayload(key string, value any) {
	if s.Payload == nil {
		s.Payload = make(map[string]any)
	}

	s.Payload[key] = value
}
