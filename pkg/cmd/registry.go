package cmd

import (
	"log/slog"

	"github.com/scribehq/scribe/pkg/agents/dailyaudit"
	"github.com/scribehq/scribe/pkg/agents/routine"
	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/protocol"
	"github.com/scribehq/scribe/pkg/registry"
)

// NewRegistry builds the agent registry with both agents wired to their
// collaborators.
func NewRegistry(logger *slog.Logger, llmClient protocol.LLMClient, j journal.Journal) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	audit := dailyaudit.New(llmClient, j.Notes(), j.Summaries(), logger)
	if err := audit.Register(reg); err != nil {
		return nil, err
	}

	generator := routine.New(llmClient, j.Notes(), j.Routines(), logger)
	if err := generator.Register(reg); err != nil {
		return nil, err
	}

	return reg, nil
}
