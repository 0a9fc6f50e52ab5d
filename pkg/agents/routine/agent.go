// Package routine implements the routine generation agent: it gathers recent
// journal entries as context, asks the language model for a structured daily
// routine proposal, pauses for human approval when configured, and persists
// the approved routine.
package routine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scribehq/scribe/pkg/agents"
	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
)

// ContextDays is how many days of journal entries feed routine generation.
const ContextDays = 7

const routineSchemaJSON = `{
	"type": "object",
	"required": ["title", "steps"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"steps": {
			"type": "array",
			"minItems": 1,
			"items": {"type": "string", "minLength": 1}
		}
	}
}`

var routineSchema = agents.MustCompileSchema(routineSchemaJSON)

// Agent wires the routine generation node handlers to their collaborators.
type Agent struct {
	llm      protocol.LLMClient
	notes    protocol.NoteRepository
	routines protocol.RoutineRepository
	logger   *slog.Logger
}

// New creates the routine generation agent.
func New(llmClient protocol.LLMClient, notes protocol.NoteRepository, routines protocol.RoutineRepository, logger *slog.Logger) *Agent {
	return &Agent{
		llm:      llmClient,
		notes:    notes,
		routines: routines,
		logger:   logger.With("module", "routine_generation"),
	}
}

// NodeSet declares the agent's closed node graph.
func NodeSet() models.NodeSet {
	return models.NodeSet{
		Nodes: []models.NodeID{
			models.NodeStart,
			models.NodeFetchContext,
			models.NodeGenerateRoutine,
			models.NodeAwaitingApproval,
			models.NodeSaveRoutine,
			models.NodeEnd,
		},
		Start:        models.NodeStart,
		Terminal:     models.NodeEnd,
		PauseNodes:   []models.NodeID{models.NodeAwaitingApproval},
		ApprovedNode: models.NodeSaveRoutine,
	}
}

// Register adds the agent's graph to the registry.
func (a *Agent) Register(reg *registry.Registry) error {
	return reg.RegisterGraph(models.AgentTypeRoutineGeneration, NodeSet(), map[models.NodeID]protocol.NodeHandler{
		models.NodeStart:            a.start,
		models.NodeFetchContext:     a.fetchContext,
		models.NodeGenerateRoutine:  a.generateRoutine,
		models.NodeAwaitingApproval: a.awaitApproval,
		models.NodeSaveRoutine:      a.saveRoutine,
	})
}

func (a *Agent) start(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	if state.PayloadString("date") == "" {
		state.SetPayload("date", time.Now().UTC().Format("2006-01-02"))
	}

	state.CurrentNode = models.NodeFetchContext

	return protocol.Advance(state)
}

func (a *Agent) fetchContext(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	end, err := time.Parse("2006-01-02", state.PayloadString("date"))
	if err != nil {
		return protocol.Fail(fmt.Errorf("invalid date %q: %w", state.PayloadString("date"), err))
	}

	var collected []*models.Note

	for offset := range ContextDays {
		day := end.AddDate(0, 0, -offset).Format("2006-01-02")

		notes, err := a.notes.NotesByDate(ctx, day)
		if err != nil {
			return protocol.Retry(state, fmt.Errorf("fetch notes for %s: %w", day, err))
		}

		collected = append(collected, notes...)
	}

	serialized, err := json.Marshal(collected)
	if err != nil {
		return protocol.Fail(fmt.Errorf("serialize context notes: %w", err))
	}

	var payloadNotes []any
	if err := json.Unmarshal(serialized, &payloadNotes); err != nil {
		return protocol.Fail(fmt.Errorf("serialize context notes: %w", err))
	}

	state.SetPayload("context_notes", payloadNotes)
	state.SetPayload("context_count", len(collected))
	state.CurrentNode = models.NodeGenerateRoutine

	return protocol.Advance(state)
}

func (a *Agent) generateRoutine(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	notes, err := contextFromPayload(state)
	if err != nil {
		return protocol.Fail(err)
	}

	reply, err := a.llm.GenerateResponse(ctx, []protocol.Message{
		{Role: "system", Content: routineSystemPrompt},
		{Role: "user", Content: buildRoutinePrompt(state.PayloadString("date"), notes)},
	})
	if err != nil {
		return protocol.Retry(state, fmt.Errorf("routine generation: %w", err))
	}

	document := agents.ExtractJSON(reply)

	if err := agents.ValidateJSON(routineSchema, document); err != nil {
		return protocol.Retry(state, fmt.Errorf("routine output: %w", err))
	}

	var payloadRoutine map[string]any
	if err := json.Unmarshal([]byte(document), &payloadRoutine); err != nil {
		return protocol.Retry(state, fmt.Errorf("decode routine: %w", err))
	}

	state.SetPayload("routine", payloadRoutine)

	// A routine changes the user's day, so approval, when configured,
	// applies to every proposal rather than a scored subset.
	if state.RequiresApproval {
		state.CurrentNode = models.NodeAwaitingApproval
	} else {
		state.CurrentNode = models.NodeSaveRoutine
	}

	return protocol.Advance(state)
}

func (a *Agent) awaitApproval(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	return protocol.Pause(state)
}

func (a *Agent) saveRoutine(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	key := agents.IdempotencyKey(state.ThreadID, models.NodeSaveRoutine)

	existing, err := a.routines.RoutineByIdempotencyKey(ctx, key)
	if err != nil && !journal.IsNotFound(err) {
		return protocol.Retry(state, fmt.Errorf("routine lookup: %w", err))
	}

	if existing != nil {
		state.SetPayload("routine_id", existing.ID)
		state.CurrentNode = models.NodeEnd

		return protocol.Advance(state)
	}

	routineValue, ok := state.Payload["routine"]
	if !ok {
		return protocol.Fail(fmt.Errorf("no routine in payload for thread %s", state.ThreadID))
	}

	document, err := json.Marshal(routineValue)
	if err != nil {
		return protocol.Fail(fmt.Errorf("decode routine payload: %w", err))
	}

	var proposal models.Routine
	if err := json.Unmarshal(document, &proposal); err != nil {
		return protocol.Fail(fmt.Errorf("decode routine payload: %w", err))
	}

	proposal.ID = uuid.New().String()
	proposal.IdempotencyKey = key
	proposal.CreatedAt = time.Now().UTC()

	if err := a.routines.SaveRoutine(ctx, &proposal); err != nil {
		return protocol.Retry(state, fmt.Errorf("save routine: %w", err))
	}

	state.SetPayload("routine_id", proposal.ID)
	state.CurrentNode = models.NodeEnd

	return protocol.Advance(state)
}

func contextFromPayload(state *models.WorkflowState) ([]*models.Note, error) {
	value, ok := state.Payload["context_notes"]
	if !ok {
		return nil, fmt.Errorf("no context notes in payload for thread %s", state.ThreadID)
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("decode context notes: %w", err)
	}

	var notes []*models.Note
	if err := json.Unmarshal(serialized, &notes); err != nil {
		return nil, fmt.Errorf("decode context notes: %w", err)
	}

	return notes, nil
}
