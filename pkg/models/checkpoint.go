package models

import "time"

// Checkpoint is a durable snapshot of a workflow thread taken after a node
// transition. Only the most recent checkpoint per thread is ever read back;
// stores may retain older rows for audit but the engine does not depend on
// them.
type Checkpoint struct {
	ThreadID  string         `json:"thread_id"`
	State     *WorkflowState `json:"state"`
	NodeID    NodeID         `json:"node_id"`
	AgentType AgentType      `json:"agent_type"`
	CreatedAt time.Time      `json:"created_at"`
}
