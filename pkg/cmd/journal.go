package cmd

import (
	"context"
	"log/slog"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/journal/file"
	"github.com/scribehq/scribe/pkg/journal/postgresql"
)

// NewJournal selects the journal storage by URL scheme, mirroring
// NewCheckpointStore.
func NewJournal(ctx context.Context, logger *slog.Logger, journalURL string) (journal.Journal, error) {
	switch parseProvider(journalURL) {
	case "postgres", "postgresql":
		return postgresql.NewJournal(ctx, logger, journalURL)
	default:
		return file.NewJournal(journalURL), nil
	}
}
