package models

import "time"

// Execution defaults applied when ExecutionConfig leaves a field zero.
const (
	DefaultMaxRetries = 3
	DefaultTimeout    = 300000 * time.Millisecond
)

// ExecutionConfig controls a single Execute call. A zero ThreadID starts a
// fresh thread; a set ThreadID resumes the thread's latest checkpoint.
type ExecutionConfig struct {
	ThreadID              string        `json:"thread_id,omitempty"`
	MaxRetries            int           `json:"max_retries"             validate:"gte=0"`
	RequiresHumanApproval bool          `json:"requires_human_approval"`
	Timeout               time.Duration `json:"timeout_ms"              validate:"gte=0"`
}

// WithDefaults fills unset fields with engine defaults.
func (c ExecutionConfig) WithDefaults() ExecutionConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	return c
}
