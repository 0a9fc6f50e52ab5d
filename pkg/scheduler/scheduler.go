// Package scheduler kicks off agent executions on cron schedules, such as the
// nightly daily audit.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/scribehq/scribe/pkg/models"
	"github.com/scribehq/scribe/pkg/workflow"
)

// Job binds one agent type to a cron expression. Each firing starts a fresh
// thread with the current date as input.
type Job struct {
	AgentType models.AgentType
	CronExpr  string
	Config    models.ExecutionConfig
}

// Scheduler runs registered jobs until stopped.
type Scheduler struct {
	executor *workflow.Executor
	logger   *slog.Logger
	cron     *cron.Cron
	jobs     []Job
}

// NewScheduler creates a scheduler driving the given executor.
func NewScheduler(executor *workflow.Executor, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		executor: executor,
		logger:   logger.With("module", "scheduler"),
	}
}

// AddJob validates and registers a job. Jobs added after Start are ignored.
func (s *Scheduler) AddJob(job Job) error {
	if job.AgentType == "" {
		return errors.New("scheduler job agent type is required")
	}

	if job.CronExpr == "" {
		return errors.New("scheduler job cron expression is required")
	}

	if _, err := cron.ParseStandard(job.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", job.CronExpr, err)
	}

	s.jobs = append(s.jobs, job)

	return nil
}

// Start schedules all registered jobs and returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	for _, job := range s.jobs {
		entryID, err := s.cron.AddFunc(job.CronExpr, func() { s.run(job) })
		if err != nil {
			return fmt.Errorf("failed to add cron job for agent %s: %w", job.AgentType, err)
		}

		s.logger.Info("Scheduled agent job",
			"agent_type", job.AgentType,
			"cron", job.CronExpr,
			"entry_id", entryID,
		)
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) run(job Job) {
	input := map[string]any{
		"date": time.Now().UTC().Format("2006-01-02"),
	}

	result, err := s.executor.Execute(context.Background(), job.AgentType, input, job.Config)
	if err != nil {
		s.logger.Error("Scheduled execution failed", "agent_type", job.AgentType, "error", err)

		return
	}

	s.logger.Info("Scheduled execution finished",
		"agent_type", job.AgentType,
		"thread_id", result.ThreadID,
		"status", result.Status,
	)
}

// Stop halts scheduling and waits for in-flight jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
