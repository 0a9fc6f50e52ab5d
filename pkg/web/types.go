// Package web provides HTTP handlers and REST API endpoints for agent
// execution management.
package web

// ExecuteRequest represents the request body for starting or continuing an
// agent execution.
type ExecuteRequest struct {
	AgentType             string         `json:"agent_type"              validate:"required,oneof=daily_audit routine_generation"`
	Input                 map[string]any `json:"input,omitempty"`
	ThreadID              string         `json:"thread_id,omitempty"`
	MaxRetries            int            `json:"max_retries"             validate:"gte=0"`
	RequiresHumanApproval bool           `json:"requires_human_approval"`
	TimeoutMs             int64          `json:"timeout_ms"              validate:"gte=0"`
}

// ResumeRequest represents the request body for applying an approval decision
// to a paused thread.
type ResumeRequest struct {
	Approved  bool   `json:"approved"`
	ResumedBy string `json:"resumed_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// CancelRequest represents the optional request body for cancelling a thread.
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
