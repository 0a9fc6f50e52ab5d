package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scribehq/scribe/pkg/journal"
	"github.com/scribehq/scribe/pkg/models"
)

// SummaryRepository persists daily-audit summaries keyed by idempotency key,
// so re-running the save node for the same thread overwrites rather than
// duplicates.
type SummaryRepository struct {
	root string
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(root string) *SummaryRepository {
	return &SummaryRepository{root: root}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("idempotency key cannot be empty")
	}

	if strings.Contains(key, "..") || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		return errors.New("idempotency key contains invalid characters")
	}

	return nil
}

// SaveSummary writes the summary under its idempotency key.
func (sr *SummaryRepository) SaveSummary(ctx context.Context, summary *models.Summary) error {
	if err := validateKey(summary.IdempotencyKey); err != nil {
		return fmt.Errorf("invalid summary key: %w", err)
	}

	summariesDir := filepath.Join(sr.root, "summaries")

	err := os.MkdirAll(summariesDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create summaries directory: %w", err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary %s: %w", summary.ID, err)
	}

	filePath := filepath.Join(summariesDir, summary.IdempotencyKey+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write summary %s: %w", summary.ID, err)
	}

	return nil
}

// SummaryByIdempotencyKey retrieves a summary by its idempotency key.
func (sr *SummaryRepository) SummaryByIdempotencyKey(ctx context.Context, key string) (*models.Summary, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("invalid summary key: %w", err)
	}

	filePath := filepath.Join(sr.root, "summaries", key+".json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- key is validated and the path constructed safely
	if err != nil {
		if os.IsNotExist(err) {
			return nil, journal.ErrSummaryNotFound
		}

		return nil, fmt.Errorf("failed to read summary %s: %w", key, err)
	}

	var summary models.Summary

	err = json.Unmarshal(data, &summary)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary %s: %w", key, err)
	}

	return &summary, nil
}
