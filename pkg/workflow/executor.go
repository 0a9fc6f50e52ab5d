// Package workflow implements the checkpointed graph execution engine: it
// drives an agent's node handlers as a resumable state machine, persisting a
// checkpoint on every node transition so a crashed or paused thread continues
// from its last durable snapshot.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/eventbus"
	"github.com/scribehq/scribe/pkg/events"
	"github.com/scribehq/scribe/pkg/lease"
	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/otelhelper"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
)

// Executor runs agent workflows against a checkpoint store. All four entry
// points (Execute, Resume, GetStatus, Cancel) operate on thread IDs; distinct
// threads never contend with each other.
type Executor struct {
	store     checkpoint.Store
	registry  *registry.Registry
	locker    lease.Locker
	recorder  protocol.MetricsRecorder
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
	backoff   func(retryCount int) time.Duration

	mu     sync.Mutex
	guards map[string]*attemptGuard
}

// Option configures optional executor collaborators.
type Option func(*Executor)

// WithEventPublisher wires lifecycle event publishing. Without it the
// executor runs silently except for logs and metrics.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Executor) {
		e.publisher = publisher
	}
}

// WithTracer overrides the default tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// NewExecutor creates a workflow executor.
func NewExecutor(
	store checkpoint.Store,
	reg *registry.Registry,
	locker lease.Locker,
	recorder protocol.MetricsRecorder,
	logger *slog.Logger,
	opts ...Option,
) *Executor {
	executor := &Executor{
		store:    store,
		registry: reg,
		locker:   locker,
		recorder: recorder,
		logger:   logger.With("module", "workflow_executor"),
		tracer:   otel.Tracer("scribe/workflow"),
		backoff:  backoffDelay,
		guards:   make(map[string]*attemptGuard),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// attemptGuard fences checkpoint writes per thread. Each Execute attempt
// takes a generation token; timeout and cancel bump the generation, after
// which the abandoned attempt's saves are rejected with ErrStaleAttempt.
type attemptGuard struct {
	mu  sync.Mutex
	gen uint64
}

func (e *Executor) guard(threadID string) *attemptGuard {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.guards[threadID]
	if !ok {
		g = &attemptGuard{}
		e.guards[threadID] = g
	}

	return g
}

// beginAttempt supersedes any in-flight attempt on the thread and returns the
// new attempt's generation token.
func (e *Executor) beginAttempt(threadID string) uint64 {
	g := e.guard(threadID)
	g.mu.Lock()
	defer g.mu.Unlock()

	g.gen++

	return g.gen
}

// saveCheckpoint persists the state unless the attempt has been superseded.
// The generation check and the store write share one critical section, so an
// abandoned attempt can never overwrite a checkpoint written after its
// supersession.
func (e *Executor) saveCheckpoint(ctx context.Context, gen uint64, state *models.WorkflowState) error {
	g := e.guard(state.ThreadID)
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gen != gen {
		return fmt.Errorf("checkpoint write for thread %s rejected: %w", state.ThreadID, ErrStaleAttempt)
	}

	return e.store.Save(ctx, &models.Checkpoint{
		ThreadID:  state.ThreadID,
		State:     state,
		NodeID:    state.CurrentNode,
		AgentType: state.AgentType,
		CreatedAt: time.Now().UTC(),
	})
}

type attemptResult struct {
	state *models.WorkflowState
	err   error
}

// Execute runs an agent workflow until it completes, fails, pauses or times
// out. Without a ThreadID in the config it starts a fresh thread; with one it
// continues from the thread's latest checkpoint.
func (e *Executor) Execute(ctx context.Context, agentType models.AgentType, input map[string]any, config models.ExecutionConfig) (*models.ExecutionResult, error) {
	config = config.WithDefaults()

	graph, err := e.registry.Graph(agentType)
	if err != nil {
		return nil, err
	}

	threadID := config.ThreadID
	fresh := threadID == ""
	if fresh {
		threadID = "thread-" + uuid.New().String()
	}

	ctx, span := e.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String(otelhelper.ThreadIDKey, threadID),
		attribute.String(otelhelper.AgentTypeKey, string(agentType)),
	))
	defer span.End()

	release, err := e.locker.Acquire(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("acquire lease for thread %s: %w", threadID, err)
	}

	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			e.logger.Warn("Lease release failed", "thread_id", threadID, "error", err)
		}
	}()

	state, err := e.prepareState(ctx, graph, threadID, fresh, input, config)
	if err != nil {
		return nil, err
	}

	if state.Status != models.ExecutionStatusRunning {
		// Terminal threads stay terminal and paused threads wait for
		// Resume; the node loop has nothing to do.
		return resultFor(state), nil
	}

	gen := e.beginAttempt(threadID)

	if fresh {
		if err := e.saveCheckpoint(ctx, gen, state); err != nil {
			return nil, err
		}
	}

	e.publish(ctx, threadID, events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, threadID, agentType),
		StartNode: state.CurrentNode,
		Input:     input,
		Resumed:   !fresh,
	})

	started := time.Now()
	done := make(chan attemptResult, 1)

	go func() {
		finalState, loopErr := e.runLoop(ctx, gen, graph, state, config)
		done <- attemptResult{state: finalState, err: loopErr}
	}()

	timer := time.NewTimer(config.Timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}

		e.record(ctx, res.state, input, time.Since(started))

		return resultFor(res.state), nil
	case <-timer.C:
		return e.timeoutThread(ctx, threadID, agentType, config, time.Since(started))
	}
}

// prepareState builds the state an Execute call starts from: a fresh state at
// the graph's start node, or the thread's latest checkpoint.
func (e *Executor) prepareState(ctx context.Context, graph *registry.AgentGraph, threadID string, fresh bool, input map[string]any, config models.ExecutionConfig) (*models.WorkflowState, error) {
	if fresh {
		now := time.Now().UTC()

		return &models.WorkflowState{
			ThreadID:         threadID,
			AgentType:        graph.AgentType(),
			Status:           models.ExecutionStatusRunning,
			CurrentNode:      graph.NodeSet().Start,
			RequiresApproval: config.RequiresHumanApproval,
			Payload:          input,
			CreatedAt:        now,
			UpdatedAt:        now,
		}, nil
	}

	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if checkpoint.IsCheckpointNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}

		return nil, err
	}

	state := cp.State
	for key, value := range input {
		state.SetPayload(key, value)
	}

	return state, nil
}

// runLoop drives node handlers until the thread leaves the running status.
// Every node transition is checkpointed before the loop proceeds past it.
func (e *Executor) runLoop(ctx context.Context, gen uint64, graph *registry.AgentGraph, state *models.WorkflowState, config models.ExecutionConfig) (*models.WorkflowState, error) {
	nodeSet := graph.NodeSet()
	logger := log.WithThread(e.logger, state.ThreadID)

	for state.Status == models.ExecutionStatusRunning {
		if state.CurrentNode == nodeSet.Terminal {
			state.Status = models.ExecutionStatusCompleted
			state.UpdatedAt = time.Now().UTC()

			if err := e.saveCheckpoint(ctx, gen, state); err != nil {
				return nil, err
			}

			logger.InfoContext(ctx, "Execution completed", "agent_type", state.AgentType)

			return state, nil
		}

		handler, err := graph.Handler(state.CurrentNode)
		if err != nil {
			return nil, err
		}

		nodeStarted := time.Now()
		outcome := handler(ctx, state.Clone())

		switch outcome.Kind {
		case protocol.OutcomeAdvance:
			next := outcome.State
			if next == nil {
				return nil, fmt.Errorf("handler for node %s advanced without state", state.CurrentNode)
			}

			if !nodeSet.Contains(next.CurrentNode) {
				return nil, fmt.Errorf("%w: handler for %s routed to %s", registry.ErrUnknownNode, state.CurrentNode, next.CurrentNode)
			}

			previous := state.CurrentNode
			moved := next.CurrentNode != previous

			if moved {
				next.RetryCount = 0
			}

			next.UpdatedAt = time.Now().UTC()
			state = next

			if moved {
				if err := e.saveCheckpoint(ctx, gen, state); err != nil {
					return nil, err
				}

				e.publish(ctx, state.ThreadID, events.NodeFinished{
					BaseEvent:  events.NewBaseEvent(events.NodeFinishedEvent, state.ThreadID, state.AgentType),
					Node:       previous,
					NextNode:   state.CurrentNode,
					DurationMs: time.Since(nodeStarted).Milliseconds(),
				})
			}

		case protocol.OutcomePause:
			if outcome.State != nil {
				state = outcome.State
			}

			state.Status = models.ExecutionStatusPaused
			state.UpdatedAt = time.Now().UTC()

			if err := e.saveCheckpoint(ctx, gen, state); err != nil {
				return nil, err
			}

			logger.InfoContext(ctx, "Execution paused awaiting decision", "node", state.CurrentNode)

			return state, nil

		case protocol.OutcomeRetry:
			if outcome.State != nil {
				outcome.State.RetryCount = state.RetryCount
				state = outcome.State
			}

			state.RetryCount++
			state.UpdatedAt = time.Now().UTC()

			if state.RetryCount >= config.MaxRetries {
				state.Status = models.ExecutionStatusFailed
				state.ErrorMessage = fmt.Sprintf("node %s failed after %d attempts: %v", state.CurrentNode, state.RetryCount, outcome.Err)

				if err := e.saveCheckpoint(ctx, gen, state); err != nil {
					return nil, err
				}

				e.publish(ctx, state.ThreadID, events.NodeFailed{
					BaseEvent:  events.NewBaseEvent(events.NodeFailedEvent, state.ThreadID, state.AgentType),
					Node:       state.CurrentNode,
					RetryCount: state.RetryCount,
					Error:      state.ErrorMessage,
				})

				return state, nil
			}

			// The incremented retry count is persisted so a crash during
			// backoff resumes the same node with its attempts intact.
			if err := e.saveCheckpoint(ctx, gen, state); err != nil {
				return nil, err
			}

			delay := e.backoff(state.RetryCount)

			logger.WarnContext(ctx, "Node failed, backing off",
				"node", state.CurrentNode,
				"retry_count", state.RetryCount,
				"backoff_ms", delay.Milliseconds(),
				"error", outcome.Err,
			)

			e.publish(ctx, state.ThreadID, events.NodeRetried{
				BaseEvent:  events.NewBaseEvent(events.NodeRetriedEvent, state.ThreadID, state.AgentType),
				Node:       state.CurrentNode,
				RetryCount: state.RetryCount,
				BackoffMs:  delay.Milliseconds(),
				Error:      fmt.Sprintf("%v", outcome.Err),
			})

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

		case protocol.OutcomeFail:
			state.Status = models.ExecutionStatusFailed
			state.ErrorMessage = fmt.Sprintf("node %s: %v", state.CurrentNode, outcome.Err)
			state.UpdatedAt = time.Now().UTC()

			if err := e.saveCheckpoint(ctx, gen, state); err != nil {
				return nil, err
			}

			e.publish(ctx, state.ThreadID, events.NodeFailed{
				BaseEvent:  events.NewBaseEvent(events.NodeFailedEvent, state.ThreadID, state.AgentType),
				Node:       state.CurrentNode,
				RetryCount: state.RetryCount,
				Error:      state.ErrorMessage,
			})

			return state, nil

		default:
			return nil, fmt.Errorf("handler for node %s returned unknown outcome %q", state.CurrentNode, outcome.Kind)
		}
	}

	return state, nil
}

// timeoutThread finalizes a thread whose attempt exceeded its deadline. The
// running attempt is fenced first, so any checkpoint it tries to write after
// this point is rejected; the failure checkpoint then wins unconditionally.
func (e *Executor) timeoutThread(ctx context.Context, threadID string, agentType models.AgentType, config models.ExecutionConfig, elapsed time.Duration) (*models.ExecutionResult, error) {
	gen := e.beginAttempt(threadID)

	persistCtx := context.WithoutCancel(ctx)

	cp, err := e.store.Load(persistCtx, threadID)
	if err != nil {
		return nil, err
	}

	state := cp.State

	// The node loop may have finished in the same instant the deadline
	// fired; a terminal checkpoint stays terminal.
	if state.Status.IsTerminal() {
		return resultFor(state), nil
	}

	state.Status = models.ExecutionStatusFailed
	state.ErrorMessage = fmt.Sprintf("execution timed out after %dms at node %s", config.Timeout.Milliseconds(), state.CurrentNode)
	state.UpdatedAt = time.Now().UTC()

	if err := e.saveCheckpoint(persistCtx, gen, state); err != nil {
		return nil, err
	}

	e.logger.WarnContext(ctx, "Execution timed out",
		"thread_id", threadID,
		"agent_type", agentType,
		"timeout_ms", config.Timeout.Milliseconds(),
		"stuck_node", state.CurrentNode,
	)

	e.publish(ctx, threadID, events.ExecutionTimeout{
		BaseEvent:      events.NewBaseEvent(events.ExecutionTimeoutEvent, threadID, agentType),
		DurationMs:     elapsed.Milliseconds(),
		TimeoutLimitMs: config.Timeout.Milliseconds(),
		StuckNode:      state.CurrentNode,
	})

	e.record(ctx, state, nil, elapsed)

	return resultFor(state), nil
}

// Resume applies a human decision to a paused thread. The applied decision is
// persisted before execution re-enters the node loop; continuing with the
// decision only in memory would reload the stale paused checkpoint and drop
// the approval.
func (e *Executor) Resume(ctx context.Context, threadID string, decision models.ApprovalDecision) (*models.ExecutionResult, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.resume", trace.WithAttributes(
		attribute.String(otelhelper.ThreadIDKey, threadID),
		attribute.Bool(otelhelper.ApprovedKey, decision.Approved),
	))
	defer span.End()

	release, err := e.locker.Acquire(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("acquire lease for thread %s: %w", threadID, err)
	}

	state, continuing, err := e.applyDecision(ctx, threadID, decision)

	// The lease is released before re-entering Execute, which takes it
	// again. The decision checkpoint is already durable at this point.
	if releaseErr := release(context.WithoutCancel(ctx)); releaseErr != nil {
		e.logger.Warn("Lease release failed", "thread_id", threadID, "error", releaseErr)
	}

	if err != nil {
		return nil, err
	}

	if !continuing {
		e.record(ctx, state, nil, 0)

		return resultFor(state), nil
	}

	return e.Execute(ctx, state.AgentType, nil, models.ExecutionConfig{
		ThreadID:              threadID,
		RequiresHumanApproval: state.RequiresApproval,
	})
}

func (e *Executor) applyDecision(ctx context.Context, threadID string, decision models.ApprovalDecision) (*models.WorkflowState, bool, error) {
	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if checkpoint.IsCheckpointNotFound(err) {
			return nil, false, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}

		return nil, false, err
	}

	state := cp.State

	graph, err := e.registry.Graph(state.AgentType)
	if err != nil {
		return nil, false, err
	}

	nodeSet := graph.NodeSet()

	if state.Status != models.ExecutionStatusPaused || !nodeSet.IsPauseNode(state.CurrentNode) {
		return nil, false, fmt.Errorf("%w: thread %s is %s at node %s", ErrInvalidResumeState, threadID, state.Status, state.CurrentNode)
	}

	state.Approved = decision.Approved

	if decision.Approved {
		state.CurrentNode = nodeSet.ApprovedNode
		state.Status = models.ExecutionStatusRunning
	} else {
		// A rejection completes the thread without running its save node.
		state.CurrentNode = nodeSet.Terminal
		state.Status = models.ExecutionStatusCompleted

		if decision.Reason != "" {
			state.SetPayload("rejection_reason", decision.Reason)
		}
	}

	state.UpdatedAt = time.Now().UTC()

	gen := e.beginAttempt(threadID)
	if err := e.saveCheckpoint(ctx, gen, state); err != nil {
		return nil, false, err
	}

	log.WithThread(e.logger, threadID).InfoContext(ctx, "Decision applied",
		"approved", decision.Approved,
		"resumed_by", decision.ResumedBy,
		"next_node", state.CurrentNode,
	)

	e.publish(ctx, threadID, events.ExecutionResumed{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumedEvent, threadID, state.AgentType),
		Approved:  decision.Approved,
		ResumedBy: decision.ResumedBy,
		NextNode:  state.CurrentNode,
	})

	return state, state.Status == models.ExecutionStatusRunning, nil
}

// GetStatus returns the thread's latest checkpointed state. It is read-only
// and safe to call at any time, including while the thread is executing.
func (e *Executor) GetStatus(ctx context.Context, threadID string) (*models.ExecutionResult, error) {
	cp, err := e.store.Load(ctx, threadID)
	if err != nil {
		if checkpoint.IsCheckpointNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}

		return nil, err
	}

	return resultFor(cp.State), nil
}

// Cancel forces a non-terminal thread into the failed status. Any in-flight
// attempt on the thread is fenced first, so its later checkpoint writes are
// rejected.
func (e *Executor) Cancel(ctx context.Context, threadID, reason string) (*models.ExecutionResult, error) {
	gen := e.beginAttempt(threadID)

	persistCtx := context.WithoutCancel(ctx)

	cp, err := e.store.Load(persistCtx, threadID)
	if err != nil {
		if checkpoint.IsCheckpointNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}

		return nil, err
	}

	state := cp.State
	if state.Status.IsTerminal() {
		return resultFor(state), nil
	}

	if reason == "" {
		reason = "cancelled by caller"
	}

	state.Status = models.ExecutionStatusFailed
	state.ErrorMessage = "execution cancelled: " + reason
	state.UpdatedAt = time.Now().UTC()

	if err := e.saveCheckpoint(persistCtx, gen, state); err != nil {
		return nil, err
	}

	e.publish(ctx, threadID, events.ExecutionCancelled{
		BaseEvent: events.NewBaseEvent(events.ExecutionCancelledEvent, threadID, state.AgentType),
		Reason:    reason,
	})

	e.record(ctx, state, nil, 0)

	return resultFor(state), nil
}

// record reports execution telemetry fire-and-forget: recorder failures are
// logged and never block or fail the engine path.
func (e *Executor) record(ctx context.Context, state *models.WorkflowState, input map[string]any, duration time.Duration) {
	if e.recorder == nil {
		return
	}

	metricsCtx := context.WithoutCancel(ctx)
	snapshot := state.Clone()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Metrics recorder panicked", "thread_id", snapshot.ThreadID, "panic", r)
			}
		}()

		metrics := protocol.ExecutionMetrics{
			ThreadID:   snapshot.ThreadID,
			AgentType:  snapshot.AgentType,
			Status:     snapshot.Status,
			Node:       snapshot.CurrentNode,
			Duration:   duration,
			RetryCount: snapshot.RetryCount,
			Input:      input,
			Output:     snapshot.Payload,
			Error:      snapshot.ErrorMessage,
		}

		if err := e.recorder.RecordExecution(metricsCtx, metrics); err != nil {
			e.logger.Warn("Metrics recording failed", "thread_id", snapshot.ThreadID, "error", err)
		}
	}()
}

// publish sends a lifecycle event without blocking the engine loop.
func (e *Executor) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	publishCtx := context.WithoutCancel(ctx)

	go func() {
		if err := e.publisher.Publish(publishCtx, key, event); err != nil {
			e.logger.Warn("Event publish failed", "event_type", event.GetType(), "error", err)
		}
	}()
}

func resultFor(state *models.WorkflowState) *models.ExecutionResult {
	return &models.ExecutionResult{
		Success:      state.Status != models.ExecutionStatusFailed,
		ThreadID:     state.ThreadID,
		Status:       state.Status,
		State:        state,
		ErrorMessage: state.ErrorMessage,
	}
}
