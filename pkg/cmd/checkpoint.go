// Package cmd provides common initialization functions for command-line
// applications: each collaborator is selected by the scheme of its URL.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/scribehq/scribe/pkg/checkpoint"
	"github.com/scribehq/scribe/pkg/checkpoint/file"
	"github.com/scribehq/scribe/pkg/checkpoint/postgresql"
)

// NewCheckpointStore selects a checkpoint store by database URL scheme:
// postgres URLs get the PostgreSQL store, anything else is treated as a file
// path.
func NewCheckpointStore(ctx context.Context, logger *slog.Logger, databaseURL string) (checkpoint.Store, error) {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewStore(ctx, logger, databaseURL)
	default:
		return file.NewStore(databaseURL), nil
	}
}

func parseProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
