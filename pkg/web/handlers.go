package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/workflow"
)

type APIHandlers struct {
	executor  *workflow.Executor
	store     checkpoint.Store
	validator *validator.Validate
}

func NewAPIHandlers(executor *workflow.Executor, store checkpoint.Store, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		executor:  executor,
		store:     store,
		validator: validator,
	}
}

// ExecuteAgent starts a fresh thread or continues an existing one.
func (h *APIHandlers) ExecuteAgent(c fiber.Ctx) error {
	var req ExecuteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	config := models.ExecutionConfig{
		ThreadID:              req.ThreadID,
		MaxRetries:            req.MaxRetries,
		RequiresHumanApproval: req.RequiresHumanApproval,
		Timeout:               time.Duration(req.TimeoutMs) * time.Millisecond,
	}

	result, err := h.executor.Execute(c.Context(), models.AgentType(req.AgentType), req.Input, config)
	if err != nil {
		return handleExecutorError(c, err)
	}

	return c.JSON(result)
}

// ResumeThread applies an approval decision to a paused thread.
func (h *APIHandlers) ResumeThread(c fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return badRequest(c, "Thread ID is required")
	}

	var req ResumeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.executor.Resume(c.Context(), threadID, models.ApprovalDecision{
		Approved:  req.Approved,
		ResumedBy: req.ResumedBy,
		Reason:    req.Reason,
	})
	if err != nil {
		return handleExecutorError(c, err)
	}

	return c.JSON(result)
}

// GetThreadStatus returns a thread's latest checkpointed state.
func (h *APIHandlers) GetThreadStatus(c fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return badRequest(c, "Thread ID is required")
	}

	result, err := h.executor.GetStatus(c.Context(), threadID)
	if err != nil {
		return handleExecutorError(c, err)
	}

	return c.JSON(result)
}

// CancelThread forces a non-terminal thread into the failed status.
func (h *APIHandlers) CancelThread(c fiber.Ctx) error {
	threadID := c.Params("id")
	if threadID == "" {
		return badRequest(c, "Thread ID is required")
	}

	var req CancelRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result, err := h.executor.Cancel(c.Context(), threadID, req.Reason)
	if err != nil {
		return handleExecutorError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Scribe API is healthy"
	httpStatus := http.StatusOK

	checkErr := h.store.HealthCheck(c.Context())
	if checkErr != nil {
		status = "unhealthy"
		message = "Scribe API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	checkpointStatus := "ok"
	if checkErr != nil {
		checkpointStatus = checkErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"checkpoint_store": checkpointStatus,
		},
		"timestamp": time.Now().UTC(),
	})
}
