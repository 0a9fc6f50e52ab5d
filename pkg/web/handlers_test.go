package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribehq/scribe/pkg/checkpoint/file"
	"github.com/scribehq/scribe/pkg/lease/local"
	"github.com/scribehq/scribe/pkg/metrics"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
	"github.com/scribehq/scribe/pkg/workflow"
)

const nodeWork models.NodeID = "work"

// testApp wires a real executor with a minimal daily_audit graph behind the
// HTTP handlers.
func testApp(t *testing.T) (*fiber.App, *workflow.Executor) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	nodeSet := models.NodeSet{
		Nodes: []models.NodeID{
			models.NodeStart,
			nodeWork,
			models.NodeAwaitingApproval,
			models.NodeEnd,
		},
		Start:        models.NodeStart,
		Terminal:     models.NodeEnd,
		PauseNodes:   []models.NodeID{models.NodeAwaitingApproval},
		ApprovedNode: models.NodeEnd,
	}

	handlers := map[models.NodeID]protocol.NodeHandler{
		models.NodeStart: func(_ context.Context, state *models.WorkflowState) protocol.Outcome {
			state.CurrentNode = nodeWork

			return protocol.Advance(state)
		},
		nodeWork: func(_ context.Context, state *models.WorkflowState) protocol.Outcome {
			if state.RequiresApproval {
				state.CurrentNode = models.NodeAwaitingApproval
			} else {
				state.CurrentNode = models.NodeEnd
			}

			return protocol.Advance(state)
		},
		models.NodeAwaitingApproval: func(_ context.Context, state *models.WorkflowState) protocol.Outcome {
			return protocol.Pause(state)
		},
	}

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.RegisterGraph(models.AgentTypeDailyAudit, nodeSet, handlers))

	store := file.NewStore(t.TempDir())
	executor := workflow.NewExecutor(store, reg, local.NewLocker(), metrics.NewLogRecorder(logger), logger)

	apiHandlers := NewAPIHandlers(executor, store, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Post("/executions", apiHandlers.ExecuteAgent)
	app.Get("/threads/:id", apiHandlers.GetThreadStatus)
	app.Post("/threads/:id/resume", apiHandlers.ResumeThread)
	app.Post("/threads/:id/cancel", apiHandlers.CancelThread)
	app.Get("/health", apiHandlers.HealthCheck)

	return app, executor
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer

	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func decodeResult(t *testing.T, resp *http.Response) *models.ExecutionResult {
	t.Helper()

	var result models.ExecutionResult

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	return &result
}

func TestExecuteAgent_StartsThread(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/executions", map[string]any{
		"agent_type": "daily_audit",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeResult(t, resp)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
	assert.NotEmpty(t, result.ThreadID)
}

func TestExecuteAgent_RejectsUnknownAgentType(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/executions", map[string]any{
		"agent_type": "mystery",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteAgent_RejectsInvalidJSON(t *testing.T) {
	app, _ := testApp(t)

	req := httptest.NewRequest(http.MethodPost, "/executions", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetThreadStatus_UnknownThread(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/threads/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResumeThread_ApprovesPausedThread(t *testing.T) {
	app, executor := testApp(t)

	paused, err := executor.Execute(context.Background(), models.AgentTypeDailyAudit, nil, models.ExecutionConfig{RequiresHumanApproval: true})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusPaused, paused.Status)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/threads/"+paused.ThreadID+"/resume", map[string]any{
		"approved":   true,
		"resumed_by": "reviewer",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeResult(t, resp)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Status)
}

func TestResumeThread_ConflictWhenNotPaused(t *testing.T) {
	app, executor := testApp(t)

	completed, err := executor.Execute(context.Background(), models.AgentTypeDailyAudit, nil, models.ExecutionConfig{})
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, completed.Status)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/threads/"+completed.ThreadID+"/resume", map[string]any{
		"approved": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestResumeThread_UnknownThread(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/threads/missing/resume", map[string]any{
		"approved": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelThread_ForcesFailure(t *testing.T) {
	app, executor := testApp(t)

	paused, err := executor.Execute(context.Background(), models.AgentTypeDailyAudit, nil, models.ExecutionConfig{RequiresHumanApproval: true})
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/threads/"+paused.ThreadID+"/cancel", map[string]any{
		"reason": "operator request",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeResult(t, resp)
	assert.Equal(t, models.ExecutionStatusFailed, result.Status)
	assert.Contains(t, result.ErrorMessage, "operator request")
}

func TestHealthCheck(t *testing.T) {
	app, _ := testApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
