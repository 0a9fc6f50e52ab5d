package models

// ExecutionResult is what Execute, Resume and Cancel hand back to callers.
// A thread that exhausts its retries or times out yields Success=false with
// Status=failed and ErrorMessage set; that is a workflow outcome, not a call
// error, so the engine returns it instead of raising it.
type ExecutionResult struct {
	Success      bool            `json:"success"`
	ThreadID     string          `json:"thread_id"`
	Status       ExecutionStatus `json:"status"`
	State        *WorkflowState  `json:"state,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
