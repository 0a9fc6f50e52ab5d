// Package protocol defines the interfaces and contracts between the workflow
// engine, its node handlers and its external collaborators.
package protocol

import (
	"context"

	"github.com/scribehq/scribe/pkg/models"
)

// OutcomeKind tags what a node handler asked the engine to do next.
type OutcomeKind string

const (
	OutcomeAdvance OutcomeKind = "advance"
	OutcomePause   OutcomeKind = "pause"
	OutcomeRetry   OutcomeKind = "retry"
	OutcomeFail    OutcomeKind = "fail"
)

// Outcome is the tagged result of one handler invocation. Handlers never
// signal retries or failures by panicking or by sentinel errors; the engine's
// retry logic is driven entirely by these explicit values.
type Outcome struct {
	Kind  OutcomeKind
	State *models.WorkflowState
	Err   error
}

// Advance hands back a new state with CurrentNode pointing at the next node.
func Advance(state *models.WorkflowState) Outcome {
	return Outcome{Kind: OutcomeAdvance, State: state}
}

// Pause suspends the thread at the current node awaiting an external
// decision. The engine persists the paused state and returns to the caller.
func Pause(state *models.WorkflowState) Outcome {
	return Outcome{Kind: OutcomePause, State: state}
}

// Retry asks the engine to re-run the same node after backoff, carrying any
// partial state the handler wants preserved across attempts.
func Retry(state *models.WorkflowState, err error) Outcome {
	return Outcome{Kind: OutcomeRetry, State: state, Err: err}
}

// Fail reports a non-retryable handler failure.
func Fail(err error) Outcome {
	return Outcome{Kind: OutcomeFail, Err: err}
}

// NodeHandler is a state-transition function: it consumes the thread's
// current state and produces an Outcome. Handlers run at-least-once; any
// external side effect that is not naturally idempotent must be guarded with
// an idempotency key derived from thread and node IDs.
type NodeHandler func(ctx context.Context, state *models.WorkflowState) Outcome
