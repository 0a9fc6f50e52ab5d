package dailyaudit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/agents/dailyaudit"
	"github.com/scribehq/scribe/pkg/checkpoint/file"
	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/lease/local"
	"github.com/scribehq/scribe/pkg/metrics"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
	"github.com/scribehq/scribe/pkg/workflow"
)

type stubLLM struct {
	reply string
}

func (s *stubLLM) GenerateResponse(_ context.Context, _ []protocol.Message) (string, error) {
	return s.reply, nil
}

type stubNotes struct {
	notes []*models.Note
}

func (s *stubNotes) NotesByDate(_ context.Context, _ string) ([]*models.Note, error) {
	return s.notes, nil
}

type stubSummaries struct {
	byKey map[string]*models.Summary
}

func (s *stubSummaries) SaveSummary(_ context.Context, summary *models.Summary) error {
	s.byKey[summary.IdempotencyKey] = summary

	return nil
}

func (s *stubSummaries) SummaryByIdempotencyKey(_ context.Context, key string) (*models.Summary, error) {
	summary, ok := s.byKey[key]
	if !ok {
		return nil, journal.ErrSummaryNotFound
	}

	return summary, nil
}

func newAuditExecutor(t *testing.T, reply string) (*workflow.Executor, *stubSummaries) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summaries := &stubSummaries{byKey: make(map[string]*models.Summary)}
	notes := &stubNotes{notes: []*models.Note{
		{ID: "n1", Date: "2024-01-15", Content: "Barely slept, argued with my manager, skipped two meals."},
	}}

	reg := registry.NewRegistry(logger)
	agent := dailyaudit.New(&stubLLM{reply: reply}, notes, summaries, logger)
	require.NoError(t, agent.Register(reg))

	executor := workflow.NewExecutor(file.NewStore(t.TempDir()), reg, local.NewLocker(), metrics.NewLogRecorder(logger), logger)

	return executor, summaries
}

const highRiskReply = "```json\n" +
	`{"summary": "A draining day with several warning signs.", "mood": "exhausted", "risk_score": 9, "concerns": ["sleep", "meals"]}` +
	"\n```"

const lowRiskReply = "```json\n" +
	`{"summary": "A rough but manageable day.", "mood": "tired", "risk_score": 4}` +
	"\n```"

func auditConfig() models.ExecutionConfig {
	return models.ExecutionConfig{RequiresHumanApproval: true}
}

func auditInput() map[string]any {
	return map[string]any{"date": "2024-01-15"}
}

func TestDailyAudit_HighRiskPausesThenApprovalSaves(t *testing.T) {
	executor, summaries := newAuditExecutor(t, highRiskReply)
	ctx := context.Background()

	paused, err := executor.Execute(ctx, models.AgentTypeDailyAudit, auditInput(), auditConfig())
	require.NoError(t, err)

	require.Equal(t, models.ExecutionStatusPaused, paused.Status)
	assert.Equal(t, models.NodeAwaitingApproval, paused.State.CurrentNode)
	assert.Empty(t, summaries.byKey, "nothing saved before approval")

	result, err := executor.Resume(ctx, paused.ThreadID, models.ApprovalDecision{Approved: true, ResumedBy: "reviewer"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, models.NodeEnd, result.State.CurrentNode)
	require.Len(t, summaries.byKey, 1)

	for _, saved := range summaries.byKey {
		assert.Equal(t, "A draining day with several warning signs.", saved.Content)
		assert.Equal(t, 9, saved.RiskScore)
		assert.Equal(t, "2024-01-15", saved.Date)
	}
}

func TestDailyAudit_HighRiskRejectionSavesNothing(t *testing.T) {
	executor, summaries := newAuditExecutor(t, highRiskReply)
	ctx := context.Background()

	paused, err := executor.Execute(ctx, models.AgentTypeDailyAudit, auditInput(), auditConfig())
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusPaused, paused.Status)

	result, err := executor.Resume(ctx, paused.ThreadID, models.ApprovalDecision{Approved: false, Reason: "sharing too much"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, models.NodeEnd, result.State.CurrentNode)
	assert.Empty(t, summaries.byKey, "rejected audit must not persist a summary")

	status, err := executor.GetStatus(ctx, paused.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, status.Status)
}

func TestDailyAudit_LowRiskCompletesWithoutPause(t *testing.T) {
	executor, summaries := newAuditExecutor(t, lowRiskReply)

	result, err := executor.Execute(context.Background(), models.AgentTypeDailyAudit, auditInput(), auditConfig())
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, models.NodeEnd, result.State.CurrentNode)
	require.Len(t, summaries.byKey, 1)
}
