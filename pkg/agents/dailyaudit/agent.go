// Package dailyaudit implements the daily audit agent: it fetches a day's
// journal entries, asks the language model for a structured analysis, pauses
// for human approval when the risk score is high, and persists the approved
// summary.
package dailyaudit

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

// RiskApprovalThreshold is the risk score at or above which an analysis must
// be approved by a human before its summary is saved.
const RiskApprovalThreshold = 8

const analysisSchemaJSON = `{
	"type": "object",
	"required": ["summary", "risk_score"],
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"mood": {"type": "string"},
		"risk_score": {"type": "integer", "minimum": 0, "maximum": 10},
		"highlights": {"type": "array", "items": {"type": "string"}},
		"concerns": {"type": "array", "items": {"type": "string"}}
	}
}`

var analysisSchema = agents.MustCompileSchema(analysisSchemaJSON)

// Agent wires the daily audit node handlers to their collaborators.
type Agent struct {
	llm       protocol.LLMClient
	notes     protocol.NoteRepository
	summaries protocol.SummaryRepository
	logger    *slog.Logger
}

// New creates the daily audit agent.
func New(llmClient protocol.LLMClient, notes protocol.NoteRepository, summaries protocol.SummaryRepository, logger *slog.Logger) *Agent {
	return &Agent{
		llm:       llmClient,
		notes:     notes,
		summaries: summaries,
		logger:    logger.With("module", "daily_audit"),
	}
}

// NodeSet declares the agent's closed node graph.
func NodeSet() models.NodeSet {
	return models.NodeSet{
		Nodes: []models.NodeID{
			models.NodeStart,
			models.NodeFetchNotes,
			models.NodeAnalyze,
			models.NodeAwaitingApproval,
			models.NodeSaveSummary,
			models.NodeEnd,
		},
		Start:        models.NodeStart,
		Terminal:     models.NodeEnd,
		PauseNodes:   []models.NodeID{models.NodeAwaitingApproval},
		ApprovedNode: models.NodeSaveSummary,
	}
}

// Register adds the agent's graph to the registry.
func (a *Agent) Register(reg *registry.Registry) error {
	return reg.RegisterGraph(models.AgentTypeDailyAudit, NodeSet(), map[models.NodeID]protocol.NodeHandler{
		models.NodeStart:            a.start,
		models.NodeFetchNotes:       a.fetchNotes,
		models.NodeAnalyze:          a.analyze,
		models.NodeAwaitingApproval: a.awaitApproval,
		models.NodeSaveSummary:      a.saveSummary,
	})
}

func (a *Agent) start(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	if state.PayloadString("date") == "" {
		state.SetPayload("date", time.Now().UTC().Format("2006-01-02"))
	}

	state.CurrentNode = models.NodeFetchNotes

	return protocol.Advance(state)
}

func (a *Agent) fetchNotes(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	date := state.PayloadString("date")

	notes, err := a.notes.NotesByDate(ctx, date)
	if err != nil {
		return protocol.Retry(state, fmt.Errorf("fetch notes for %s: %w", date, err))
	}

	state.SetPayload("notes_count", len(notes))

	if len(notes) == 0 {
		// Nothing to audit.
		a.logger.InfoContext(ctx, "No journal entries for date", "date", date, "thread_id", state.ThreadID)
		state.CurrentNode = models.NodeEnd

		return protocol.Advance(state)
	}

	serialized, err := json.Marshal(notes)
	if err != nil {
		return protocol.Fail(fmt.Errorf("serialize notes: %w", err))
	}

	var payloadNotes []any
	if err := json.Unmarshal(serialized, &payloadNotes); err != nil {
		return protocol.Fail(fmt.Errorf("serialize notes: %w", err))
	}

	state.SetPayload("notes", payloadNotes)
	state.CurrentNode = models.NodeAnalyze

	return protocol.Advance(state)
}

func (a *Agent) analyze(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	notes, err := notesFromPayload(state)
	if err != nil {
		return protocol.Fail(err)
	}

	date := state.PayloadString("date")

	reply, err := a.llm.GenerateResponse(ctx, []protocol.Message{
		{Role: "system", Content: auditSystemPrompt},
		{Role: "user", Content: buildAuditPrompt(date, notes)},
	})
	if err != nil {
		return protocol.Retry(state, fmt.Errorf("analysis generation: %w", err))
	}

	document := agents.ExtractJSON(reply)

	// Malformed model output is treated as transient: a regenerated reply
	// usually parses.
	if err := agents.ValidateJSON(analysisSchema, document); err != nil {
		return protocol.Retry(state, fmt.Errorf("analysis output: %w", err))
	}

	var analysis models.Analysis
	if err := json.Unmarshal([]byte(document), &analysis); err != nil {
		return protocol.Retry(state, fmt.Errorf("decode analysis: %w", err))
	}

	var payloadAnalysis map[string]any
	if err := json.Unmarshal([]byte(document), &payloadAnalysis); err != nil {
		return protocol.Retry(state, fmt.Errorf("decode analysis: %w", err))
	}

	state.SetPayload("analysis", payloadAnalysis)
	state.SetPayload("risk_score", analysis.RiskScore)

	if state.RequiresApproval && analysis.RiskScore >= RiskApprovalThreshold {
		a.logger.InfoContext(ctx, "Analysis requires approval",
			"thread_id", state.ThreadID,
			"date", date,
			"risk_score", analysis.RiskScore,
		)
		state.CurrentNode = models.NodeAwaitingApproval
	} else {
		state.CurrentNode = models.NodeSaveSummary
	}

	return protocol.Advance(state)
}

// awaitApproval is the suspension point: the thread stays here until a
// resume decision routes it to the save node or the terminal.
func (a *Agent) awaitApproval(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	return protocol.Pause(state)
}

func (a *Agent) saveSummary(ctx context.Context, state *models.WorkflowState) protocol.Outcome {
	key := agents.IdempotencyKey(state.ThreadID, models.NodeSaveSummary)

	existing, err := a.summaries.SummaryByIdempotencyKey(ctx, key)
	if err != nil && !journal.IsNotFound(err) {
		return protocol.Retry(state, fmt.Errorf("summary lookup: %w", err))
	}

	if existing != nil {
		state.SetPayload("summary_id", existing.ID)
		state.CurrentNode = models.NodeEnd

		return protocol.Advance(state)
	}

	analysisValue, ok := state.Payload["analysis"]
	if !ok {
		return protocol.Fail(fmt.Errorf("no analysis in payload for thread %s", state.ThreadID))
	}

	document, err := json.Marshal(analysisValue)
	if err != nil {
		return protocol.Fail(fmt.Errorf("decode analysis payload: %w", err))
	}

	var analysis models.Analysis
	if err := json.Unmarshal(document, &analysis); err != nil {
		return protocol.Fail(fmt.Errorf("decode analysis payload: %w", err))
	}

	summary := &models.Summary{
		ID:             uuid.New().String(),
		Date:           state.PayloadString("date"),
		Content:        analysis.Summary,
		RiskScore:      analysis.RiskScore,
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}

	if err := a.summaries.SaveSummary(ctx, summary); err != nil {
		return protocol.Retry(state, fmt.Errorf("save summary: %w", err))
	}

	state.SetPayload("summary_id", summary.ID)
	state.CurrentNode = models.NodeEnd

	return protocol.Advance(state)
}

func notesFromPayload(state *models.WorkflowState) ([]*models.Note, error) {
	value, ok := state.Payload["notes"]
	if !ok {
		return nil, fmt.Errorf("no notes in payload for thread %s", state.ThreadID)
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("decode notes payload: %w", err)
	}

	var notes []*models.Note
	if err := json.Unmarshal(serialized, &notes); err != nil {
		return nil, fmt.Errorf("decode notes payload: %w", err)
	}

	return notes, nil
}
