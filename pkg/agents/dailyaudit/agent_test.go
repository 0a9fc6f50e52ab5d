package dailyaudit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/agents"
	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
}

func (f *fakeLLM) GenerateResponse(_ context.Context, _ []protocol.Message) (string, error) {
	f.calls++

	return f.reply, f.err
}

type fakeNotes struct {
	notes []*models.Note
	err   error
}

func (f *fakeNotes) NotesByDate(_ context.Context, _ string) ([]*models.Note, error) {
	return f.notes, f.err
}

type fakeSummaries struct {
	byKey   map[string]*models.Summary
	saveErr error
	saves   int
}

func newFakeSummaries() *fakeSummaries {
	return &fakeSummaries{byKey: make(map[string]*models.Summary)}
}

func (f *fakeSummaries) SaveSummary(_ context.Context, summary *models.Summary) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.byKey[summary.IdempotencyKey] = summary
	f.saves++

	return nil
}

func (f *fakeSummaries) SummaryByIdempotencyKey(_ context.Context, key string) (*models.Summary, error) {
	summary, ok := f.byKey[key]
	if !ok {
		return nil, journal.ErrSummaryNotFound
	}

	return summary, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleNotes() []*models.Note {
	return []*models.Note{
		{ID: "n1", Date: "2024-01-15", Content: "Slept badly, skipped the gym.", CreatedAt: time.Now()},
		{ID: "n2", Date: "2024-01-15", Content: "Finished the quarterly report.", CreatedAt: time.Now()},
	}
}

func runningState(node models.NodeID) *models.WorkflowState {
	return &models.WorkflowState{
		ThreadID:    "thread-test",
		AgentType:   models.AgentTypeDailyAudit,
		Status:      models.ExecutionStatusRunning,
		CurrentNode: node,
		Payload:     map[string]any{"date": "2024-01-15"},
	}
}

func withNotesPayload(state *models.WorkflowState, notes []*models.Note) *models.WorkflowState {
	payloadNotes := make([]any, 0, len(notes))
	for _, n := range notes {
		payloadNotes = append(payloadNotes, map[string]any{
			"id":      n.ID,
			"date":    n.Date,
			"content": n.Content,
		})
	}

	state.SetPayload("notes", payloadNotes)

	return state
}

func analysisReply(riskScore int) string {
	return fmt.Sprintf("Here is the analysis:\n```json\n"+
		`{"summary": "A mixed day.", "mood": "tired", "risk_score": %d, "highlights": ["report done"]}`+
		"\n```", riskScore)
}

func TestAgent_RegisterGraph(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{}, newFakeSummaries(), testLogger())
	reg := registry.NewRegistry(testLogger())

	require.NoError(t, agent.Register(reg))

	graph, err := reg.Graph(models.AgentTypeDailyAudit)
	require.NoError(t, err)
	assert.Equal(t, models.NodeStart, graph.NodeSet().Start)
	assert.Equal(t, models.NodeSaveSummary, graph.NodeSet().ApprovedNode)
}

func TestAgent_StartDefaultsDate(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := runningState(models.NodeStart)
	state.Payload = nil

	outcome := agent.start(context.Background(), state)
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeFetchNotes, outcome.State.CurrentNode)
	assert.NotEmpty(t, outcome.State.PayloadString("date"))
}

func TestAgent_FetchNotesEmptyDayEndsThread(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{}, newFakeSummaries(), testLogger())

	outcome := agent.fetchNotes(context.Background(), runningState(models.NodeFetchNotes))
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeEnd, outcome.State.CurrentNode)
}

func TestAgent_FetchNotesRepositoryErrorRetries(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{err: errors.New("connection refused")}, newFakeSummaries(), testLogger())

	outcome := agent.fetchNotes(context.Background(), runningState(models.NodeFetchNotes))
	require.Equal(t, protocol.OutcomeRetry, outcome.Kind)
	assert.ErrorContains(t, outcome.Err, "connection refused")
}

func TestAgent_FetchNotesAdvancesToAnalyze(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{notes: sampleNotes()}, newFakeSummaries(), testLogger())

	outcome := agent.fetchNotes(context.Background(), runningState(models.NodeFetchNotes))
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeAnalyze, outcome.State.CurrentNode)
	assert.NotNil(t, outcome.State.Payload["notes"])
}

func TestAgent_AnalyzeLowRiskSkipsApproval(t *testing.T) {
	llm := &fakeLLM{reply: analysisReply(3)}
	agent := New(llm, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := withNotesPayload(runningState(models.NodeAnalyze), sampleNotes())
	state.RequiresApproval = true

	outcome := agent.analyze(context.Background(), state)
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeSaveSummary, outcome.State.CurrentNode)
	assert.Equal(t, 1, llm.calls)
}

func TestAgent_AnalyzeHighRiskPausesForApproval(t *testing.T) {
	agent := New(&fakeLLM{reply: analysisReply(9)}, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := withNotesPayload(runningState(models.NodeAnalyze), sampleNotes())
	state.RequiresApproval = true

	outcome := agent.analyze(context.Background(), state)
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeAwaitingApproval, outcome.State.CurrentNode)
}

func TestAgent_AnalyzeHighRiskWithoutApprovalRequirement(t *testing.T) {
	agent := New(&fakeLLM{reply: analysisReply(9)}, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := withNotesPayload(runningState(models.NodeAnalyze), sampleNotes())
	state.RequiresApproval = false

	outcome := agent.analyze(context.Background(), state)
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeSaveSummary, outcome.State.CurrentNode)
}

func TestAgent_AnalyzeMalformedOutputRetries(t *testing.T) {
	agent := New(&fakeLLM{reply: "I cannot produce JSON today."}, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := withNotesPayload(runningState(models.NodeAnalyze), sampleNotes())

	outcome := agent.analyze(context.Background(), state)
	assert.Equal(t, protocol.OutcomeRetry, outcome.Kind)
}

func TestAgent_AnalyzeLLMErrorRetries(t *testing.T) {
	agent := New(&fakeLLM{err: errors.New("rate limited")}, &fakeNotes{}, newFakeSummaries(), testLogger())

	state := withNotesPayload(runningState(models.NodeAnalyze), sampleNotes())

	outcome := agent.analyze(context.Background(), state)
	require.Equal(t, protocol.OutcomeRetry, outcome.Kind)
	assert.ErrorContains(t, outcome.Err, "rate limited")
}

func TestAgent_AwaitApprovalPauses(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{}, newFakeSummaries(), testLogger())

	outcome := agent.awaitApproval(context.Background(), runningState(models.NodeAwaitingApproval))
	assert.Equal(t, protocol.OutcomePause, outcome.Kind)
}

func TestAgent_SaveSummaryPersistsOnce(t *testing.T) {
	summaries := newFakeSummaries()
	agent := New(&fakeLLM{}, &fakeNotes{}, summaries, testLogger())

	state := runningState(models.NodeSaveSummary)
	state.SetPayload("analysis", map[string]any{"summary": "A mixed day.", "risk_score": 3})

	outcome := agent.saveSummary(context.Background(), state)
	require.Equal(t, protocol.OutcomeAdvance, outcome.Kind)
	assert.Equal(t, models.NodeEnd, outcome.State.CurrentNode)
	assert.Equal(t, 1, summaries.saves)

	key := agents.IdempotencyKey(state.ThreadID, models.NodeSaveSummary)
	saved := summaries.byKey[key]
	require.NotNil(t, saved)
	assert.Equal(t, "A mixed day.", saved.Content)
	assert.Equal(t, 3, saved.RiskScore)
	assert.Equal(t, "2024-01-15", saved.Date)

	// Re-running the node for the same thread reuses the stored summary.
	again := agent.saveSummary(context.Background(), outcome.State)
	require.Equal(t, protocol.OutcomeAdvance, again.Kind)
	assert.Equal(t, 1, summaries.saves)
	assert.Equal(t, saved.ID, again.State.PayloadString("summary_id"))
}

func TestAgent_SaveSummaryRepositoryErrorRetries(t *testing.T) {
	summaries := newFakeSummaries()
	summaries.saveErr = errors.New("write timeout")
	agent := New(&fakeLLM{}, &fakeNotes{}, summaries, testLogger())

	state := runningState(models.NodeSaveSummary)
	state.SetPayload("analysis", map[string]any{"summary": "A mixed day.", "risk_score": 3})

	outcome := agent.saveSummary(context.Background(), state)
	require.Equal(t, protocol.OutcomeRetry, outcome.Kind)
	assert.ErrorContains(t, outcome.Err, "write timeout")
}

func TestAgent_SaveSummaryWithoutAnalysisFails(t *testing.T) {
	agent := New(&fakeLLM{}, &fakeNotes{}, newFakeSummaries(), testLogger())

	outcome := agent.saveSummary(context.Background(), runningState(models.NodeSaveSummary))
	assert.Equal(t, protocol.OutcomeFail, outcome.Kind)
}
